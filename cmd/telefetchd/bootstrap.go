package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"telefetch/internal/bot"
	"telefetch/internal/config"
	"telefetch/internal/daemon"
	"telefetch/internal/delivery"
	"telefetch/internal/fetching"
	"telefetch/internal/logging"
	"telefetch/internal/pipeline"
	"telefetch/internal/resolver"
	"telefetch/internal/store"
	"telefetch/internal/transcoding"
	"telefetch/internal/transport"
	"telefetch/internal/workflow"
)

const metadataTimeout = 60 * time.Second

// bootstrap wires the full pipeline: SQLite store, admission queue, Telegram
// client, download clients sharing one cookie jar, the stage handlers, and
// the daemon that runs them.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	queue := pipeline.NewQueue(cfg.Pipeline.PerUserLimit)

	chat, err := transport.New(cfg.BotToken(),
		transport.WithBaseURL(cfg.Telegram.APIBaseURL),
		transport.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Telegram.RequestTimeout) * time.Second}),
		transport.WithUploadClient(&http.Client{Timeout: time.Duration(cfg.Telegram.UploadTimeout) * time.Second}),
	)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("telegram client: %w", err)
	}

	jar, err := resolver.LoadCookieJar(cfg.Paths.CookiesFile)
	if err != nil {
		logger.Warn("cookies file unusable, continuing without it", logging.Error(err))
	}
	// One jar across both clients keeps authenticated sessions valid for
	// metadata and stream requests alike. The stream client carries no
	// timeout; downloads run long and the stage context bounds them.
	metaClient := &http.Client{Jar: jar, Timeout: metadataTimeout}
	streamClient := &http.Client{Jar: jar}

	res := resolver.New(resolver.WithHTTPClient(metaClient))

	stages := workflow.StageSet{
		Fetcher:    fetching.NewFetcher(cfg, logger, streamClient),
		Transcoder: transcoding.NewTranscoder(cfg, logger),
		Deliverer:  delivery.NewDeliverer(cfg, logger, chat, st),
	}

	manager := workflow.NewManager(cfg, logger, queue, res, chat, stages)
	b := bot.New(cfg, logger, queue, st, chat)

	d, err := daemon.New(cfg, st, queue, manager, chat, b.HandleUpdate, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return d, nil
}
