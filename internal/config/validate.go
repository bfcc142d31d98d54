package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Secrets that only the daemon
// needs (the bot token) are checked at daemon startup instead so read-only
// CLI commands work without them.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.TokenEnv == "" {
		return errors.New("telegram.token_env must name the environment variable holding the bot token")
	}
	if c.Telegram.WebhookURL != "" {
		parsed, err := url.Parse(c.Telegram.WebhookURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("telegram.webhook_url must be an http(s) URL, got %q", c.Telegram.WebhookURL)
		}
	}
	if strings.TrimSpace(c.Telegram.APIBaseURL) == "" {
		return errors.New("telegram.api_base_url must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"telegram.request_timeout": c.Telegram.RequestTimeout,
		"telegram.upload_timeout":  c.Telegram.UploadTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.workers":            c.Pipeline.Workers,
		"pipeline.per_user_limit":     c.Pipeline.PerUserLimit,
		"pipeline.fetch_attempts":     c.Pipeline.FetchAttempts,
		"pipeline.fetch_retry_base":   c.Pipeline.FetchRetryBase,
		"pipeline.fetch_timeout":      c.Pipeline.FetchTimeout,
		"pipeline.transcode_attempts": c.Pipeline.TranscodeAttempts,
		"pipeline.transcode_timeout":  c.Pipeline.TranscodeTimeout,
		"pipeline.delivery_timeout":   c.Pipeline.DeliveryTimeout,
		"pipeline.scratch_max_age":    c.Pipeline.ScratchMaxAge,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
