package service

import (
	"context"
	"fmt"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
	"cfstats/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobPusher hands a job ID to whoever drains the refresh queue.
type JobPusher interface {
	Push(ctx context.Context, id string) error
}

type RefreshJobService struct {
	jobRepo repository.RefreshJobRepository
	queue   JobPusher
}

func NewRefreshJobService(jobRepo repository.RefreshJobRepository, queue JobPusher) *RefreshJobService {
	return &RefreshJobService{jobRepo: jobRepo, queue: queue}
}

// EnqueueRefresh creates a job record and pushes its ID to the queue.
func (s *RefreshJobService) EnqueueRefresh(ctx context.Context, handle, reason string) (*model.RefreshJob, error) {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return nil, err
	}
	job := &model.RefreshJob{
		ID:     uuid.NewString(),
		Handle: handle,
		Reason: reason,
		Status: model.JobStatusQueued,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create refresh job: %w", err)
	}

	if err := s.queue.Push(ctx, job.ID); err != nil {
		// The record stays behind as Failed so the caller can still look it up.
		msg := "enqueue failed: " + err.Error()
		if uErr := s.jobRepo.UpdateStatus(ctx, job.ID, model.JobStatusFailed, &msg); uErr != nil {
			zap.L().Error("marking unqueued job failed", zap.String("job_id", job.ID), zap.Error(uErr))
		}
		return nil, fmt.Errorf("failed to push refresh job: %v: %w", err, common.ErrServiceUnavailable)
	}

	zap.L().Info("refresh job enqueued",
		zap.String("job_id", job.ID), zap.String("handle", handle), zap.String("reason", reason))
	return job, nil
}

func (s *RefreshJobService) GetJob(ctx context.Context, id string) (*model.RefreshJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid job id: %w", common.ErrBadRequest)
	}
	return s.jobRepo.GetByID(ctx, id)
}
