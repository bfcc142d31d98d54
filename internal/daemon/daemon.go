package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"telefetch/internal/config"
	"telefetch/internal/deps"
	"telefetch/internal/logging"
	"telefetch/internal/notifications"
	"telefetch/internal/pipeline"
	"telefetch/internal/preflight"
	"telefetch/internal/stage"
	"telefetch/internal/store"
	"telefetch/internal/transport"
	"telefetch/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a lock file in the log directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	queue    *pipeline.Queue
	workflow *workflow.Manager
	chat     transport.Client
	updates  transport.UpdateFunc
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	webhook    *webhookServer
	api        *apiServer
	webhookSet atomic.Bool

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	WebhookSet   bool
	LockPath     string
	Queue        map[pipeline.Status]int
	Stages       []stage.Health
	Database     store.DatabaseHealth
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies. The updates handler
// receives every webhook payload; it is the bot's entry point.
func New(cfg *config.Config, st *store.Store, queue *pipeline.Queue, wf *workflow.Manager, chat transport.Client, updates transport.UpdateFunc, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || queue == nil || wf == nil || chat == nil || updates == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, queue, workflow manager, chat client, update handler, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "telefetchd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		queue:    queue,
		workflow: wf,
		chat:     chat,
		updates:  updates,
		notifier: notifications.NewService(cfg, chat, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up intake, workers, the admin
// API, and the janitor. On any failure everything already started is torn
// down again.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another telefetch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.logPreflight(ctx)

	if err := d.workflow.Start(d.ctx); err != nil {
		d.rollback(nil)
		return fmt.Errorf("start workflow: %w", err)
	}

	token := d.cfg.BotToken()
	router := transport.NewWebhookRouter(token, d.updates, d.logger)
	d.webhook = newWebhookServer(d.cfg.Telegram.WebhookBind, router, d.logger)
	if err := d.webhook.start(); err != nil {
		d.rollback(func() { d.workflow.Stop() })
		return fmt.Errorf("start webhook server: %w", err)
	}

	d.api = newAPIServer(d.cfg, d, d.logger)
	if d.api != nil {
		if err := d.api.start(); err != nil {
			d.rollback(func() {
				d.webhook.stop()
				d.workflow.Stop()
			})
			return fmt.Errorf("start api server: %w", err)
		}
	}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.registerWebhook(d.ctx)
	}()
	go func() {
		defer d.wg.Done()
		d.runJanitor(d.ctx)
	}()

	d.running.Store(true)
	d.logger.Info("telefetch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// logPreflight reports environment readiness at startup. Failures are
// logged, not fatal: the webhook registration loop already tolerates a
// temporarily unreachable Telegram API, and a missing ffmpeg only matters
// once an oversized video needs transcoding.
func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg, d.chat, d.store) {
		if result.Passed {
			d.logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		} else {
			d.logger.Warn("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.Alert("preflight-failed"))
		}
	}
	for _, status := range preflight.CheckSystemDeps(d.cfg) {
		if status.Available {
			d.logger.Info("external binary found",
				logging.String("binary", status.Name),
				logging.String("path", status.Detail))
			continue
		}
		d.logger.Warn("external binary missing",
			logging.String("binary", status.Name),
			logging.String("detail", status.Detail),
			logging.Alert("dependency-missing"))
	}
}

func (d *Daemon) rollback(undo func()) {
	if undo != nil {
		undo()
	}
	d.cancel()
	d.ctx = nil
	d.cancel = nil
	_ = d.lock.Unlock()
}

// Stop deregisters the webhook, stops intake and workers, and releases the
// daemon lock. Safe to call more than once.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.deregisterWebhook()

	if d.webhook != nil {
		d.webhook.stop()
	}
	if d.api != nil {
		d.api.stop()
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	// Close cancels the waiting jobs; the workers abandon their in-flight
	// job when the context above goes.
	d.queue.Close()
	d.workflow.Stop()
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("telefetch daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status collects runtime information for the admin API.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		WebhookSet:   d.webhookSet.Load(),
		LockPath:     d.lockPath,
		Queue:        d.queue.Stats(),
		Stages:       d.workflow.Health(ctx),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
	if d.store != nil {
		health, err := d.store.CheckHealth(ctx)
		if err != nil && health.Error == "" {
			health.Error = err.Error()
		}
		status.Database = health
	}
	return status
}
