// Package config loads, normalizes, and validates telefetch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Secrets never live in the file: the
// Telegram bot token is read from the environment variable named by
// telegram.token_env. The Config type centralizes every knob the daemon and
// CLI need, so scratch/log/database locations and pipeline limits are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
