package workflow

import (
	"context"
	"errors"
	"sync"

	"log/slog"

	"telefetch/internal/config"
	"telefetch/internal/logging"
	"telefetch/internal/pipeline"
	"telefetch/internal/resolver"
	"telefetch/internal/stage"
	"telefetch/internal/transport"
)

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Fetcher    stage.Handler
	Transcoder stage.Handler
	Deliverer  stage.Handler
}

// Resolver turns a submitted URL into a batch of downloadable items.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*resolver.Resolution, error)
}

// Manager coordinates queue processing across a pool of workers.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	queue    *pipeline.Queue
	resolver Resolver
	chat     transport.Client
	stages   StageSet

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a workflow manager. The chat client may be nil, in
// which case progress relaying is skipped and failures are only logged.
func NewManager(cfg *config.Config, logger *slog.Logger, queue *pipeline.Queue, res Resolver, chat transport.Client, stages StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "workflow")),
		queue:    queue,
		resolver: res,
		chat:     chat,
		stages:   stages,
	}
}

// Start launches the worker pool.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if m.queue == nil || m.resolver == nil {
		return errors.New("workflow queue and resolver must be configured")
	}
	if m.stages.Fetcher == nil || m.stages.Transcoder == nil || m.stages.Deliverer == nil {
		return errors.New("workflow stages not configured")
	}

	workers := m.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i+1)
	}
	m.logger.Info("workflow started", logging.Int("workers", workers))
	return nil
}

// Stop terminates the worker pool and waits for in-flight jobs to unwind.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

// Health reports readiness of every configured stage handler.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	checks := []struct {
		name    string
		handler stage.Handler
	}{
		{"fetcher", m.stages.Fetcher},
		{"transcoder", m.stages.Transcoder},
		{"deliverer", m.stages.Deliverer},
	}
	health := make([]stage.Health, 0, len(checks))
	for _, check := range checks {
		if check.handler == nil {
			health = append(health, stage.Unhealthy(check.name, "not configured"))
			continue
		}
		health = append(health, check.handler.HealthCheck(ctx))
	}
	return health
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", id))
	for {
		job, err := m.queue.Claim(ctx)
		if err != nil {
			// Claim only fails when the queue closes or the context ends.
			logger.Debug("worker exiting", logging.Error(err))
			return
		}
		m.processJob(ctx, logger, job)
	}
}
