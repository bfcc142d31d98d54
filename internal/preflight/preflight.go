package preflight

import (
	"context"

	"telefetch/internal/config"
	"telefetch/internal/store"
	"telefetch/internal/transport"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks that need a live handle (Telegram, database) are skipped when the
// caller has none to offer.
func RunAll(ctx context.Context, cfg *config.Config, chat transport.Client, st *store.Store) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if chat != nil {
		results = append(results, CheckTelegram(ctx, chat))
	}
	if st != nil {
		results = append(results, CheckDatabase(ctx, st))
	}

	return results
}
