package config

const (
	defaultScratchDir        = "~/.local/share/telefetch/scratch"
	defaultLogDir            = "~/.local/share/telefetch/logs"
	defaultDBPath            = "~/.local/share/telefetch/telefetch.db"
	defaultCookiesFile       = "~/.local/share/telefetch/cookies.txt"
	defaultAPIBind           = "127.0.0.1:7575"
	defaultTokenEnv          = "BOT_TOKEN"
	defaultTelegramBaseURL   = "https://api.telegram.org"
	defaultWebhookBind       = "0.0.0.0:8000"
	defaultRequestTimeout    = 30
	defaultUploadTimeout     = 900
	defaultWorkers           = 2
	defaultPerUserLimit      = 1
	defaultFetchAttempts     = 3
	defaultFetchRetryBase    = 2
	defaultFetchTimeout      = 1800
	defaultTranscodeAttempts = 3
	defaultTranscodeTimeout  = 3600
	defaultDeliveryTimeout   = 900
	defaultScratchMaxAge     = 24
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir:  defaultScratchDir,
			LogDir:      defaultLogDir,
			DBPath:      defaultDBPath,
			CookiesFile: defaultCookiesFile,
			APIBind:     defaultAPIBind,
		},
		Telegram: Telegram{
			TokenEnv:       defaultTokenEnv,
			APIBaseURL:     defaultTelegramBaseURL,
			WebhookBind:    defaultWebhookBind,
			RequestTimeout: defaultRequestTimeout,
			UploadTimeout:  defaultUploadTimeout,
		},
		Pipeline: Pipeline{
			Workers:           defaultWorkers,
			PerUserLimit:      defaultPerUserLimit,
			FetchAttempts:     defaultFetchAttempts,
			FetchRetryBase:    defaultFetchRetryBase,
			FetchTimeout:      defaultFetchTimeout,
			TranscodeAttempts: defaultTranscodeAttempts,
			TranscodeTimeout:  defaultTranscodeTimeout,
			DeliveryTimeout:   defaultDeliveryTimeout,
			ScratchMaxAge:     defaultScratchMaxAge,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
