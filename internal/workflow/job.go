package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"telefetch/internal/logging"
	"telefetch/internal/media"
	"telefetch/internal/pipeline"
	"telefetch/internal/services"
	"telefetch/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, logger *slog.Logger, job pipeline.Job) {
	jobCtx := services.WithJobID(ctx, job.ID)
	jobCtx = services.WithUserID(jobCtx, job.UserID)
	logger = logging.WithContext(jobCtx, logger)

	start := time.Now()
	logger.Info("job claimed", logging.String("url", job.URL))

	scratch := filepath.Join(m.cfg.Paths.ScratchDir, "job-"+job.ID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		logger.Error("scratch directory unavailable", logging.Error(err), logging.Alert("scratch"))
		m.failJob(jobCtx, job, "The downloader has no working space available")
		return
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("scratch cleanup failed",
				logging.String("path", scratch),
				logging.Error(err),
				logging.Alert("scratch-leak"),
			)
		}
	}()

	m.transition(logger, job.ID, pipeline.StatusResolving)
	resolution, err := m.resolver.Resolve(jobCtx, job.URL)
	if err != nil {
		m.failResolution(jobCtx, logger, job, err)
		return
	}
	m.queue.SetProgress(job.ID, resolution.Title, 0, resolution.BatchSize)
	if resolution.Playlist {
		m.editStatus(jobCtx, job, fmt.Sprintf("📋 Playlist detected: %d items. Starting...", resolution.BatchSize))
	}

	delivered, failed := 0, 0
	var lastErr error
	for {
		item, err := resolution.Next(jobCtx)
		if item == nil {
			if err != nil {
				logger.Debug("batch interrupted", logging.Error(err))
				m.queue.Fail(job.ID, pipeline.ShutdownReason)
				return
			}
			break
		}
		if err == nil {
			err = m.processItem(jobCtx, logger, job, *item, scratch)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				m.queue.Fail(job.ID, pipeline.ShutdownReason)
				return
			}
			if errors.Is(err, services.ErrChatGone) {
				logger.Warn("chat gone, abandoning batch",
					logging.Int64(logging.FieldChatID, job.ChatID),
					logging.Error(err),
				)
				m.queue.Fail(job.ID, "chat no longer reachable")
				return
			}
			failed++
			lastErr = err
			m.queue.RecordItemResult(job.ID, false)
			m.notifyItemFailure(jobCtx, logger, job, *item, resolution.BatchSize, err)
			continue
		}
		delivered++
		m.queue.RecordItemResult(job.ID, true)
	}

	m.finishJob(jobCtx, logger, job, resolution.BatchSize, delivered, failed, lastErr)
	logger.Info("job finished",
		logging.Int("delivered", delivered),
		logging.Int("failed", failed),
		logging.Duration("elapsed", time.Since(start)),
	)
}

// processItem walks one batch item through the stages. The returned error is
// nil only when the item was delivered.
func (m *Manager) processItem(ctx context.Context, logger *slog.Logger, job pipeline.Job, item media.Item, jobScratch string) error {
	ctx = services.WithItemIndex(ctx, item.Position)
	logger = logging.WithContext(ctx, logger)

	itemScratch := filepath.Join(jobScratch, fmt.Sprintf("item-%02d", item.Position))
	if err := os.MkdirAll(itemScratch, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "create scratch",
			"Could not create a working directory for this item", err)
	}
	defer func() {
		if err := os.RemoveAll(itemScratch); err != nil {
			logger.Warn("item scratch cleanup failed",
				logging.String("path", itemScratch),
				logging.Error(err),
				logging.Alert("scratch-leak"),
			)
		}
	}()

	task := pipeline.NewTask(job, item, job.Requested, itemScratch)
	m.queue.SetProgress(job.ID, "", item.Position, 0)

	m.transition(logger, job.ID, pipeline.StatusFetching)
	m.advance(logger, task, pipeline.ItemFetching)
	m.editStatus(ctx, job, fetchingText(item))
	if err := m.runStage(ctx, "fetching", m.stages.Fetcher, task, m.cfg.FetchTimeoutDuration()); err != nil {
		m.advance(logger, task, pipeline.ItemFailed)
		return err
	}
	m.advance(logger, task, pipeline.ItemFetched)

	// The transcode handler passes oversized checks through untouched files,
	// so the chat only hears about conversion when one will actually run.
	if task.FetchedSize > media.DeliveryCeiling {
		m.transition(logger, job.ID, pipeline.StatusTranscoding)
		m.advance(logger, task, pipeline.ItemTranscoding)
		m.editStatus(ctx, job, convertingText(item))
	}
	if err := m.runStage(ctx, "transcoding", m.stages.Transcoder, task, m.cfg.TranscodeTimeoutDuration()); err != nil {
		m.advance(logger, task, pipeline.ItemFailed)
		return err
	}

	m.transition(logger, job.ID, pipeline.StatusDelivering)
	m.advance(logger, task, pipeline.ItemDelivering)
	m.editStatus(ctx, job, uploadingText(item))
	if err := m.runStage(ctx, "delivery", m.stages.Deliverer, task, m.cfg.DeliveryTimeoutDuration()); err != nil {
		m.advance(logger, task, pipeline.ItemFailed)
		return err
	}
	m.advance(logger, task, pipeline.ItemDone)
	return nil
}

func (m *Manager) runStage(ctx context.Context, name string, handler stage.Handler, task *pipeline.Task, timeout time.Duration) error {
	stageCtx := services.WithStage(ctx, name)
	cancel := func() {}
	if timeout > 0 {
		stageCtx, cancel = context.WithTimeout(stageCtx, timeout)
	}
	defer cancel()

	logger := logging.WithContext(stageCtx, m.logger)
	start := time.Now()
	err := handler.Prepare(stageCtx, task)
	if err == nil {
		err = handler.Execute(stageCtx, task)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, name, "run stage",
				"The operation took too long and was stopped", err)
		}
		return err
	}
	logger.Debug("stage finished", logging.Duration("stage_duration", time.Since(start)))
	return nil
}

// transition moves the job's coarse status, logging rather than failing when
// the move is rejected; an invalid move here is a bookkeeping bug, not a
// reason to drop a download.
func (m *Manager) transition(logger *slog.Logger, jobID string, status pipeline.Status) {
	if _, err := m.queue.Transition(jobID, status); err != nil {
		logger.Warn("status transition rejected",
			logging.String("status", string(status)),
			logging.Error(err),
		)
	}
}

func (m *Manager) advance(logger *slog.Logger, task *pipeline.Task, state pipeline.ItemState) {
	if err := task.Advance(state); err != nil {
		logger.Warn("item state advance rejected",
			logging.String("state", string(state)),
			logging.Error(err),
		)
	}
}

func (m *Manager) failJob(ctx context.Context, job pipeline.Job, message string) {
	m.editStatus(ctx, job, "❌ "+message)
	m.queue.Fail(job.ID, message)
}
