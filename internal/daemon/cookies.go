package daemon

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"telefetch/internal/config"
	"telefetch/internal/fileutil"
	"telefetch/internal/logging"
)

// cookiesEnv can carry the cookies.txt CONTENT, not a path. Hosting
// platforms hand secrets to processes as environment variables, so the
// daemon materializes the value to the configured path on startup.
const cookiesEnv = "COOKIES_FILE"

// MaterializeCookies writes the cookies secret to disk when the environment
// provides one, otherwise reports whether a file is already in place. Runs
// before the download clients are built so they pick the file up. A write
// failure is logged and tolerated: the bot still works for public videos.
func MaterializeCookies(cfg *config.Config, logger *slog.Logger) {
	path := strings.TrimSpace(cfg.Paths.CookiesFile)
	if path == "" {
		return
	}

	if content := os.Getenv(cookiesEnv); strings.TrimSpace(content) != "" {
		data := []byte(content)
		if err := fileutil.WriteFileAtomic(path, data, 0o600); err != nil {
			logger.Error("cookies file write failed",
				logging.String("path", path),
				logging.Error(err),
				logging.Alert("cookies-unavailable"))
			return
		}
		logger.Info("cookies file written",
			logging.String("path", path),
			logging.Int("bytes", len(data)),
			logging.Int("lines", countLines(data)))
		return
	}

	if _, err := os.Stat(path); err == nil {
		logger.Info("using existing cookies file", logging.String("path", path))
	} else {
		logger.Info("no cookies file found, sign-in restricted videos will fail until one is installed",
			logging.String("path", path))
	}
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("\n"))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
