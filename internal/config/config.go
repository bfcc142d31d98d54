package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, database, and bind address configuration.
type Paths struct {
	ScratchDir  string `toml:"scratch_dir"`
	LogDir      string `toml:"log_dir"`
	DBPath      string `toml:"db_path"`
	CookiesFile string `toml:"cookies_file"`
	APIBind     string `toml:"api_bind"`
}

// Telegram contains configuration for the Telegram Bot API transport. The bot
// token itself is never stored in the config file; TokenEnv names the
// environment variable that carries it.
type Telegram struct {
	TokenEnv       string `toml:"token_env"`
	APIBaseURL     string `toml:"api_base_url"`
	WebhookBind    string `toml:"webhook_bind"`
	WebhookURL     string `toml:"webhook_url"`
	OwnerChatID    int64  `toml:"owner_chat_id"`
	RequestTimeout int    `toml:"request_timeout"`
	UploadTimeout  int    `toml:"upload_timeout"`
}

// Pipeline contains admission, retry, and timing knobs for the download
// pipeline.
type Pipeline struct {
	Workers           int `toml:"workers"`
	PerUserLimit      int `toml:"per_user_limit"`
	FetchAttempts     int `toml:"fetch_attempts"`
	FetchRetryBase    int `toml:"fetch_retry_base"`
	FetchTimeout      int `toml:"fetch_timeout"`
	TranscodeAttempts int `toml:"transcode_attempts"`
	TranscodeTimeout  int `toml:"transcode_timeout"`
	DeliveryTimeout   int `toml:"delivery_timeout"`
	ScratchMaxAge     int `toml:"scratch_max_age"`
}

// Tools contains external binary names or paths.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for telefetch.
//
// Configuration sections by subsystem:
//   - Paths: scratch/log directories, SQLite path, cookies file, API bind
//   - Telegram: bot transport, webhook registration, owner alerts
//   - Pipeline: worker pool size, per-user limits, retries, timeouts
//   - Tools: ffmpeg/ffprobe binaries
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Telegram Telegram `toml:"telegram"`
	Pipeline Pipeline `toml:"pipeline"`
	Tools    Tools    `toml:"tools"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/telefetch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/telefetch/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("telefetch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ScratchDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.DBPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.DBPath))
	}
	if strings.TrimSpace(c.Paths.CookiesFile) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CookiesFile))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// BotToken reads the Telegram bot token from the configured environment
// variable. Empty means the secret was not provided.
func (c *Config) BotToken() string {
	return strings.TrimSpace(os.Getenv(c.Telegram.TokenEnv))
}

// FFmpegBinary returns the ffmpeg executable used for muxing and transcoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpeg); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFprobe); bin != "" {
		return bin
	}
	return "ffprobe"
}

// FetchRetryBaseDelay returns the initial backoff delay between fetch
// attempts; each retry doubles it.
func (c *Config) FetchRetryBaseDelay() time.Duration {
	return time.Duration(c.Pipeline.FetchRetryBase) * time.Second
}

// FetchTimeoutDuration bounds a single item's fetch, including retries.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.Pipeline.FetchTimeout) * time.Second
}

// TranscodeTimeoutDuration bounds a single transcode attempt.
func (c *Config) TranscodeTimeoutDuration() time.Duration {
	return time.Duration(c.Pipeline.TranscodeTimeout) * time.Second
}

// DeliveryTimeoutDuration bounds a single upload attempt.
func (c *Config) DeliveryTimeoutDuration() time.Duration {
	return time.Duration(c.Pipeline.DeliveryTimeout) * time.Second
}

// ScratchMaxAgeDuration is how old an orphaned scratch directory must be
// before the janitor removes it.
func (c *Config) ScratchMaxAgeDuration() time.Duration {
	return time.Duration(c.Pipeline.ScratchMaxAge) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
