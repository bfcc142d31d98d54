package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"telefetch/internal/logging"
)

const (
	webhookAttempts  = 5
	webhookRetryBase = 3 * time.Second
)

// webhookServer hosts the HTTP endpoint Telegram posts updates to.
type webhookServer struct {
	bind     string
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
}

func newWebhookServer(bind string, handler http.Handler, logger *slog.Logger) *webhookServer {
	return &webhookServer{
		bind:   bind,
		logger: logger,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *webhookServer) start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("webhook listen on %s: %w", s.bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server error", logging.Error(err))
		}
	}()

	s.logger.Info("webhook server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *webhookServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// webhookTarget builds the public callback URL. The bot token rides in the
// path, which is what authenticates Telegram's posts.
func (d *Daemon) webhookTarget() string {
	base := strings.TrimSpace(d.cfg.Telegram.WebhookURL)
	if base == "" {
		return ""
	}
	token := d.cfg.BotToken()
	if token == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/webhook/" + token
}

// registerWebhook points Telegram at the public URL, retrying with a
// growing pause. Registration failure leaves the daemon running: the bot
// just receives no updates until the operator fixes the URL and restarts.
func (d *Daemon) registerWebhook(ctx context.Context) {
	target := d.webhookTarget()
	if target == "" {
		d.logger.Warn("webhook URL not configured, the bot will not receive updates",
			logging.Alert("webhook-unregistered"))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= webhookAttempts; attempt++ {
		err := d.chat.SetWebhook(ctx, target)
		if err == nil {
			d.webhookSet.Store(true)
			d.logger.Info("webhook registered", logging.String("url", d.cfg.Telegram.WebhookURL))
			_ = d.notifier.Started(ctx, target)
			return
		}
		lastErr = err
		d.logger.Warn("webhook registration failed",
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt == webhookAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(webhookRetryBase * time.Duration(attempt)):
		}
	}

	d.logger.Error("giving up on webhook registration",
		logging.Error(lastErr),
		logging.Alert("webhook-unregistered"))
	_ = d.notifier.Alert(ctx, "Webhook registration failed; chat intake is offline.")
}

// deregisterWebhook tells Telegram to stop posting before the HTTP server
// goes away, so pending updates get redelivered to the next run instead of
// bouncing off a dead port.
func (d *Daemon) deregisterWebhook() {
	if !d.webhookSet.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.chat.DeleteWebhook(ctx); err != nil {
		d.logger.Warn("webhook deregistration failed", logging.Error(err))
		return
	}
	d.webhookSet.Store(false)
	d.logger.Info("webhook deregistered")
}
