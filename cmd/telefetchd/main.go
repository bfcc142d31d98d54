package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"telefetch/internal/config"
	"telefetch/internal/daemon"
	"telefetch/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A .env beside the working directory is the easiest way to carry
	// BOT_TOKEN in small deployments. Absence is fine.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.BotToken() == "" {
		logger.Error("bot token missing", logging.String("env", cfg.Telegram.TokenEnv))
		os.Exit(1)
	}

	// Cookies must hit disk before the download clients load their jar.
	daemon.MaterializeCookies(cfg, logger)

	d, err := bootstrap(cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("telefetchd shutting down")
}
