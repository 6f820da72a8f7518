package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cfstats/internal/app/aggregator"
	"cfstats/internal/common"
	"cfstats/internal/domain/model"
	"cfstats/internal/domain/repository"
	"cfstats/internal/platform/cache"
	"cfstats/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{3,24}$`)

// ProfileFetcher is the subset of the Codeforces client the pipeline needs.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, handle string) (*model.UserProfile, error)
	FetchPhotoURL(ctx context.Context, handle string) (string, bool)
	FetchRatingHistory(ctx context.Context, handle string) ([]model.RatingChange, error)
	FetchSubmissions(ctx context.Context, handle string) ([]model.Submission, error)
	FetchBlogEntries(ctx context.Context, handle string) ([]model.BlogEntry, error)
}

type StatsService struct {
	fetcher   ProfileFetcher
	cache     cache.SnapshotCache
	snapshots repository.SnapshotRepository // nil disables history
	group     singleflight.Group
	now       func() time.Time
}

func NewStatsService(fetcher ProfileFetcher, c cache.SnapshotCache, snapshots repository.SnapshotRepository) *StatsService {
	return &StatsService{fetcher: fetcher, cache: c, snapshots: snapshots, now: time.Now}
}

// StatsView is Stats plus the presentation-ordered views of it.
type StatsView struct {
	model.Stats
	Tags         []model.TagCount         `json:"tags"`
	Difficulties []model.DifficultyBucket `json:"difficulties"`
}

func ValidateHandle(handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if !handlePattern.MatchString(handle) {
		return "", fmt.Errorf("invalid handle %q: %w", handle, common.ErrValidation)
	}
	return handle, nil
}

// BuildSnapshot runs the two-phase fetch and aggregates the result. Any
// failure fails the whole pipeline; the photo alone degrades to absent.
func (s *StatsService) BuildSnapshot(ctx context.Context, handle string) (*model.Snapshot, error) {
	var (
		profile  *model.UserProfile
		photoURL string
		changes  []model.RatingChange
		subs     []model.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.fetcher.FetchProfile(gctx, handle)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		photoURL, _ = s.fetcher.FetchPhotoURL(gctx, handle)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", handle, err)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		changes, err = s.fetcher.FetchRatingHistory(gctx, handle)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = s.fetcher.FetchSubmissions(gctx, handle)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch activity %s: %w", handle, err)
	}

	// user.info returns the canonical capitalisation.
	canonical := profile.Handle
	if canonical == "" {
		canonical = handle
	}
	return &model.Snapshot{
		ID:            uuid.NewString(),
		Handle:        canonical,
		Profile:       *profile,
		PhotoURL:      photoURL,
		RatingHistory: changes,
		Submissions:   subs,
		Stats:         aggregator.Aggregate(canonical, subs, changes),
		FetchedAt:     s.now().UTC(),
	}, nil
}

// Refresh rebuilds the snapshot, caches and persists it. Concurrent refreshes
// of the same handle share one pipeline run; a caller whose context ends
// stops waiting but does not cancel the run for the others.
func (s *StatsService) Refresh(ctx context.Context, handle string) (*model.Snapshot, error) {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	runCtx := context.WithoutCancel(ctx)

	ch := s.group.DoChan(cache.Key(handle), func() (interface{}, error) {
		start := s.now()
		snap, err := s.BuildSnapshot(runCtx, handle)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(runCtx, snap); err != nil {
			log.Warn("caching snapshot failed", zap.String("handle", handle), zap.Error(err))
		}
		if s.snapshots != nil {
			if err := s.snapshots.Save(runCtx, snap); err != nil {
				log.Error("persisting snapshot failed", zap.String("handle", handle), zap.Error(err))
			}
		}
		log.Info("snapshot refreshed",
			zap.String("handle", snap.Handle),
			zap.Int("total_solved", snap.Stats.TotalSolved),
			zap.Duration("took", s.now().Sub(start)))
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Snapshot), nil
	}
}

// Get serves a cached snapshot when there is one, refreshing otherwise. When
// the refresh fails because the upstream is unavailable, the last persisted
// snapshot is served instead, marked Stale. fresh disables both the cache and
// the fallback.
func (s *StatsService) Get(ctx context.Context, handle string, fresh bool) (*model.Snapshot, error) {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return nil, err
	}
	if fresh {
		return s.Refresh(ctx, handle)
	}

	log := logger.FromContext(ctx)
	snap, err := s.cache.Get(ctx, handle)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn("cache read failed", zap.String("handle", handle), zap.Error(err))
	}

	snap, err = s.Refresh(ctx, handle)
	if err == nil || s.snapshots == nil || !upstreamUnavailable(err) {
		return snap, err
	}
	latest, lerr := s.snapshots.Latest(ctx, handle)
	if lerr != nil {
		if !errors.Is(lerr, common.ErrNotFound) {
			log.Warn("reading persisted snapshot failed", zap.String("handle", handle), zap.Error(lerr))
		}
		return nil, err
	}
	log.Warn("upstream unavailable, serving persisted snapshot",
		zap.String("handle", handle),
		zap.Time("fetched_at", latest.FetchedAt),
		zap.Error(err))
	stale := *latest
	stale.Stale = true
	return &stale, nil
}

// upstreamUnavailable reports failures a stored snapshot can paper over.
// NotFound and validation errors are answers, not outages.
func upstreamUnavailable(err error) bool {
	return errors.Is(err, common.ErrServiceUnavailable) ||
		errors.Is(err, common.ErrRateLimited) ||
		errors.Is(err, common.ErrUpstream)
}

func (s *StatsService) Stats(ctx context.Context, handle string) (*StatsView, error) {
	snap, err := s.Get(ctx, handle, false)
	if err != nil {
		return nil, err
	}
	return &StatsView{
		Stats:        snap.Stats,
		Tags:         aggregator.SortedTags(snap.Stats.SolvedByTag),
		Difficulties: aggregator.SortedDifficulties(snap.Stats.SolvedByDifficulty),
	}, nil
}

func (s *StatsService) RatingHistory(ctx context.Context, handle string) ([]model.RatingPoint, error) {
	snap, err := s.Get(ctx, handle, false)
	if err != nil {
		return nil, err
	}
	return aggregator.RatingPoints(snap.RatingHistory), nil
}

func (s *StatsService) Submissions(ctx context.Context, handle, verdict, tag string) ([]model.Submission, error) {
	snap, err := s.Get(ctx, handle, false)
	if err != nil {
		return nil, err
	}
	return aggregator.FilterSubmissions(snap.Submissions, model.Verdict(verdict), tag), nil
}

func (s *StatsService) BlogEntries(ctx context.Context, handle string) ([]model.BlogEntry, error) {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return nil, err
	}
	return s.fetcher.FetchBlogEntries(ctx, handle)
}

// History lists persisted snapshot summaries, newest first.
func (s *StatsService) History(ctx context.Context, handle string, limit int) ([]model.SnapshotSummary, error) {
	handle, err := ValidateHandle(handle)
	if err != nil {
		return nil, err
	}
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot history not configured: %w", common.ErrServiceUnavailable)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	out, err := s.snapshots.History(ctx, handle, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.SnapshotSummary{}
	}
	return out, nil
}
