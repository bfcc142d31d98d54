package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizePipeline()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		c.Paths.DBPath = defaultDBPath
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.CookiesFile) == "" {
		c.Paths.CookiesFile = defaultCookiesFile
	}
	if c.Paths.CookiesFile, err = expandPath(c.Paths.CookiesFile); err != nil {
		return fmt.Errorf("paths.cookies_file: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.TokenEnv = strings.TrimSpace(c.Telegram.TokenEnv)
	if c.Telegram.TokenEnv == "" {
		c.Telegram.TokenEnv = defaultTokenEnv
	}
	c.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIBaseURL), "/")
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = defaultTelegramBaseURL
	}
	c.Telegram.WebhookBind = strings.TrimSpace(c.Telegram.WebhookBind)
	if c.Telegram.WebhookBind == "" {
		c.Telegram.WebhookBind = defaultWebhookBind
	}
	c.Telegram.WebhookURL = strings.TrimRight(strings.TrimSpace(c.Telegram.WebhookURL), "/")
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultRequestTimeout
	}
	if c.Telegram.UploadTimeout <= 0 {
		c.Telegram.UploadTimeout = defaultUploadTimeout
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.Pipeline.PerUserLimit <= 0 {
		c.Pipeline.PerUserLimit = defaultPerUserLimit
	}
	if c.Pipeline.FetchAttempts <= 0 {
		c.Pipeline.FetchAttempts = defaultFetchAttempts
	}
	if c.Pipeline.FetchRetryBase <= 0 {
		c.Pipeline.FetchRetryBase = defaultFetchRetryBase
	}
	if c.Pipeline.FetchTimeout <= 0 {
		c.Pipeline.FetchTimeout = defaultFetchTimeout
	}
	if c.Pipeline.TranscodeAttempts <= 0 {
		c.Pipeline.TranscodeAttempts = defaultTranscodeAttempts
	}
	if c.Pipeline.TranscodeTimeout <= 0 {
		c.Pipeline.TranscodeTimeout = defaultTranscodeTimeout
	}
	if c.Pipeline.DeliveryTimeout <= 0 {
		c.Pipeline.DeliveryTimeout = defaultDeliveryTimeout
	}
	if c.Pipeline.ScratchMaxAge <= 0 {
		c.Pipeline.ScratchMaxAge = defaultScratchMaxAge
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
