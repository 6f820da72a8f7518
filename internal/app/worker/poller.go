package worker

import (
	"context"
	"time"

	"cfstats/internal/domain/model"
	"cfstats/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultPollConcurrency = 2

// HandleSource lists the handles to refresh on each tick.
type HandleSource interface {
	Handles(ctx context.Context) ([]string, error)
}

// Poller refreshes every tracked handle on a fixed interval. At most
// concurrency refreshes run at once; a handle whose previous refresh is still
// running is skipped for that tick.
type Poller struct {
	source    HandleSource
	refresher Refresher
	locker    Locker
	jobs      repository.RefreshJobRepository // nil skips job records
	interval  time.Duration
	logger    *zap.Logger

	// Shared across ticks so the cap also holds when a tick overlaps the
	// refreshes still running from the previous one.
	group errgroup.Group
}

func NewPoller(source HandleSource, refresher Refresher, locker Locker, jobs repository.RefreshJobRepository, interval time.Duration, concurrency int, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultPollConcurrency
	}
	p := &Poller{
		source:    source,
		refresher: refresher,
		locker:    locker,
		jobs:      jobs,
		interval:  interval,
		logger:    logger.Named("poller"),
	}
	p.group.SetLimit(concurrency)
	return p
}

// Run ticks immediately and then every interval. It returns after ctx is done
// and all in-flight refreshes have returned.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", zap.Duration("interval", p.interval))
	defer p.Wait()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick starts a refresh for every handle not already in flight. It blocks
// while all slots are busy and returns once the last handle has been started
// or skipped, without waiting for the refreshes themselves.
func (p *Poller) Tick(ctx context.Context) {
	handles, err := p.source.Handles(ctx)
	if err != nil {
		p.logger.Error("failed to list tracked handles", zap.Error(err))
		return
	}
	for _, handle := range handles {
		handle := handle
		if ctx.Err() != nil {
			return
		}
		// The lock is taken inside the slot, so its TTL only covers a
		// refresh that is actually running.
		p.group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			p.refresh(ctx, handle)
			return nil
		})
	}
}

func (p *Poller) refresh(ctx context.Context, handle string) {
	key := lockKey(handle)
	token, ok, err := p.locker.TryLock(ctx, key)
	if err != nil {
		p.logger.Error("failed to take refresh lock", zap.String("handle", handle), zap.Error(err))
		return
	}
	if !ok {
		pollRefreshesTotal.WithLabelValues("skipped").Inc()
		p.logger.Debug("refresh still in flight, skipping", zap.String("handle", handle))
		return
	}

	// Shutdown does not abandon a running pipeline: the lock is held until
	// the refresh has actually returned.
	runCtx := context.WithoutCancel(ctx)
	defer func() {
		if _, err := p.locker.Unlock(runCtx, key, token); err != nil {
			p.logger.Error("failed to release refresh lock", zap.String("handle", handle), zap.Error(err))
		}
	}()

	job := p.startJob(runCtx, handle)
	snap, err := p.refresher.Refresh(runCtx, handle)
	if err != nil {
		pollRefreshesTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("scheduled refresh failed", zap.String("handle", handle), zap.Error(err))
		if job != nil {
			msg := err.Error()
			if err := p.jobs.UpdateStatus(runCtx, job.ID, model.JobStatusFailed, &msg); err != nil {
				p.logger.Error("failed to update poll job", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		return
	}
	pollRefreshesTotal.WithLabelValues("ok").Inc()
	if job != nil {
		if err := p.jobs.Complete(runCtx, job.ID, snap.ID); err != nil {
			p.logger.Error("failed to complete poll job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// startJob records the scheduled refresh. A failed insert is logged and the
// refresh still runs.
func (p *Poller) startJob(ctx context.Context, handle string) *model.RefreshJob {
	if p.jobs == nil {
		return nil
	}
	job := &model.RefreshJob{
		ID:     uuid.NewString(),
		Handle: handle,
		Reason: model.RefreshReasonPoll,
		Status: model.JobStatusProcessing,
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		p.logger.Error("failed to record poll job", zap.String("handle", handle), zap.Error(err))
		return nil
	}
	if err := p.jobs.IncrementAttempts(ctx, job.ID); err != nil {
		p.logger.Error("failed to count attempt", zap.String("job_id", job.ID), zap.Error(err))
	}
	return job
}

// Wait blocks until refreshes started by Tick have returned.
func (p *Poller) Wait() {
	_ = p.group.Wait()
}
