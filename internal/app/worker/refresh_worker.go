package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cfstats/internal/domain/model"
	"cfstats/internal/domain/repository"
	"cfstats/internal/platform/queue"

	"go.uber.org/zap"
)

// JobQueue is drained by the worker. queue.ListQueue implements it.
type JobQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// Refresher rebuilds and stores the snapshot of one handle.
type Refresher interface {
	Refresh(ctx context.Context, handle string) (*model.Snapshot, error)
}

type RefreshWorker struct {
	queue      JobQueue
	jobRepo    repository.RefreshJobRepository
	refresher  Refresher
	locker     Locker
	logger     *zap.Logger
	popTimeout time.Duration
	errBackoff time.Duration
}

func NewRefreshWorker(q JobQueue, jobRepo repository.RefreshJobRepository, refresher Refresher, locker Locker, logger *zap.Logger) *RefreshWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshWorker{
		queue:      q,
		jobRepo:    jobRepo,
		refresher:  refresher,
		locker:     locker,
		logger:     logger.Named("refresh_worker"),
		popTimeout: 5 * time.Second,
		errBackoff: 5 * time.Second,
	}
}

// Start blocks, processing one job at a time until ctx is done.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.logger.Info("refresh worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopping")
			return
		default:
		}

		jobID, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("failed to pop refresh job", zap.Error(err))
			sleep(ctx, w.errBackoff)
			continue
		}
		w.Process(ctx, jobID)
	}
}

// Process runs one job under the per-handle lock. A job whose handle is
// already being refreshed elsewhere is marked Skipped.
func (w *RefreshWorker) Process(ctx context.Context, jobID string) {
	log := w.logger.With(zap.String("job_id", jobID))

	job, err := w.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		log.Error("failed to load refresh job", zap.Error(err))
		return
	}
	if job.Done() {
		log.Warn("refresh job already finished", zap.String("status", job.Status))
		return
	}
	log = log.With(zap.String("handle", job.Handle))

	key := lockKey(job.Handle)
	token, ok, err := w.locker.TryLock(ctx, key)
	if err != nil {
		w.finish(ctx, log, job.ID, model.JobStatusFailed, fmt.Sprintf("lock: %v", err))
		return
	}
	if !ok {
		w.finish(ctx, log, job.ID, model.JobStatusSkipped, "refresh of this handle already in progress")
		return
	}
	// The refresh outlives a cancelled ctx so the lock is never released
	// while its pipeline is still running.
	runCtx := context.WithoutCancel(ctx)
	defer func() {
		released, err := w.locker.Unlock(runCtx, key, token)
		if err != nil {
			log.Error("failed to release refresh lock", zap.Error(err))
		} else if !released {
			log.Warn("refresh lock expired before release")
		}
	}()

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, model.JobStatusProcessing, nil); err != nil {
		log.Error("failed to mark job processing", zap.Error(err))
	}
	if err := w.jobRepo.IncrementAttempts(ctx, job.ID); err != nil {
		log.Error("failed to count attempt", zap.Error(err))
	}

	snap, err := w.refresher.Refresh(runCtx, job.Handle)
	if err != nil {
		w.finish(ctx, log, job.ID, model.JobStatusFailed, err.Error())
		return
	}
	if err := w.jobRepo.Complete(runCtx, job.ID, snap.ID); err != nil {
		log.Error("failed to mark job completed", zap.Error(err))
		return
	}
	jobsTotal.WithLabelValues(model.JobStatusCompleted).Inc()
	log.Info("refresh job completed", zap.String("snapshot_id", snap.ID))
}

func (w *RefreshWorker) finish(ctx context.Context, log *zap.Logger, jobID, status, msg string) {
	jobsTotal.WithLabelValues(status).Inc()
	if status == model.JobStatusFailed {
		log.Error("refresh job failed", zap.String("error", msg))
	} else {
		log.Info("refresh job finished", zap.String("status", status), zap.String("reason", msg))
	}
	if err := w.jobRepo.UpdateStatus(context.WithoutCancel(ctx), jobID, status, &msg); err != nil {
		log.Error("failed to update job status", zap.String("status", status), zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
