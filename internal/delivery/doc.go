// Package delivery implements the final stage: uploading the finished file
// to the requesting chat. A failed video send gets exactly one retry as a
// plain document before the item is declared failed, and delivered bytes are
// recorded against the requesting user's usage ledger.
package delivery
