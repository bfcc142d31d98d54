// Package bot turns incoming Telegram updates into pipeline work. YouTube
// links are admitted to the queue with the sender's stored quality
// preference; anything else is either a command (/start, /help, /quality)
// or silently ignored.
package bot
