package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cfstats/internal/app/aggregator"
	"cfstats/internal/domain/model"
	"cfstats/internal/domain/repository"
)

type TrackingService struct {
	handles   repository.TrackedHandleRepository
	snapshots repository.SnapshotRepository
}

func NewTrackingService(handles repository.TrackedHandleRepository, snapshots repository.SnapshotRepository) *TrackingService {
	return &TrackingService{handles: handles, snapshots: snapshots}
}

func (s *TrackingService) Track(ctx context.Context, handle string, addedBy *string) (*model.TrackedHandle, error) {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return nil, err
	}
	return s.handles.Add(ctx, handle, addedBy)
}

func (s *TrackingService) Untrack(ctx context.Context, handle string) error {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return err
	}
	return s.handles.Remove(ctx, handle)
}

func (s *TrackingService) List(ctx context.Context) ([]model.TrackedHandle, error) {
	out, err := s.handles.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.TrackedHandle{}
	}
	return out, nil
}

// Handles returns the tracked handle names; the poller iterates these.
func (s *TrackingService) Handles(ctx context.Context) ([]string, error) {
	tracked, err := s.handles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(tracked))
	for i, th := range tracked {
		out[i] = th.Handle
	}
	return out, nil
}

// Seed tracks every handle from configuration, skipping invalid ones.
func (s *TrackingService) Seed(ctx context.Context, handles []string) error {
	for _, h := range handles {
		if _, err := ValidateHandle(h); err != nil {
			continue
		}
		if _, err := s.handles.Add(ctx, h, nil); err != nil {
			return fmt.Errorf("seed %s: %w", h, err)
		}
	}
	return nil
}

// Leaderboard ranks tracked handles by their latest snapshot: rating, then max
// rating, then handle. Handles never fetched are left out.
func (s *TrackingService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	handles, err := s.Handles(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.LeaderboardEntry{}
	if len(handles) == 0 {
		return out, nil
	}
	sums, err := s.snapshots.LatestSummaries(ctx, handles)
	if err != nil {
		return nil, err
	}

	sort.Slice(sums, func(i, j int) bool {
		a, b := sums[i], sums[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.MaxRating != b.MaxRating {
			return a.MaxRating > b.MaxRating
		}
		return strings.ToLower(a.Handle) < strings.ToLower(b.Handle)
	})
	for i, sum := range sums {
		out = append(out, model.LeaderboardEntry{
			Place:          i + 1,
			Handle:         sum.Handle,
			Rating:         sum.Rating,
			MaxRating:      sum.MaxRating,
			Rank:           sum.Rank,
			ProblemsSolved: sum.TotalSolved,
			Color:          aggregator.RatingColor(sum.Rating),
		})
	}
	return out, nil
}
