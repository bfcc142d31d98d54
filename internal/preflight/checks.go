package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"telefetch/internal/config"
	"telefetch/internal/deps"
	"telefetch/internal/store"
	"telefetch/internal/transport"
)

// CheckTelegram verifies that the Bot API accepts the configured token.
// It uses a 10-second timeout and a single attempt (no retries).
func CheckTelegram(ctx context.Context, chat transport.Client) Result {
	const name = "Telegram API"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	me, err := chat.GetMe(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeTelegramError(err)}
	}
	detail := "authorized"
	if me.Username != "" {
		detail = fmt.Sprintf("authorized as @%s", me.Username)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDatabase verifies that the SQLite store is readable and structurally
// sound.
func CheckDatabase(ctx context.Context, st *store.Store) Result {
	const name = "Database"

	health, err := st.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	if !health.DatabaseExists {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", health.DBPath)}
	}
	if !health.DatabaseReadable {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable)", health.DBPath)}
	}
	if len(health.MissingTables) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("missing tables: %s", strings.Join(health.MissingTables, ", "))}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: "integrity check failed"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%s)", health.DBPath, health.SchemaVersion)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config. Both
// the daemon and the CLI status command use this to avoid duplicating the
// requirements list. ffmpeg and ffprobe only matter once a video exceeds the
// upload ceiling, but a missing binary is still worth surfacing before the
// first oversized download fails on it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for transcoding oversized videos",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeTelegramError produces a human-readable summary for Bot API health
// check failures.
func summarizeTelegramError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Telegram API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Telegram API unreachable)"
	}
	return err.Error()
}
