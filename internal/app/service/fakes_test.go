package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
)

type fakeFetcher struct {
	profileErr error
	ratingErr  error
	subsErr    error

	profileCalls atomic.Int32
	subsCalls    atomic.Int32

	// release, when set, blocks FetchSubmissions until closed.
	release chan struct{}
}

func (f *fakeFetcher) FetchProfile(_ context.Context, handle string) (*model.UserProfile, error) {
	f.profileCalls.Add(1)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &model.UserProfile{Handle: strings.ToUpper(handle[:1]) + handle[1:], Rating: 1650, MaxRating: 1700, Rank: "expert"}, nil
}

func (f *fakeFetcher) FetchPhotoURL(context.Context, string) (string, bool) {
	return "https://userpic.codeforces.org/p.jpg", true
}

func (f *fakeFetcher) FetchRatingHistory(context.Context, string) ([]model.RatingChange, error) {
	if f.ratingErr != nil {
		return nil, f.ratingErr
	}
	return []model.RatingChange{
		{ContestID: 1, ContestName: "Round 1", Rank: 120, OldRating: 1500, NewRating: 1650},
	}, nil
}

func (f *fakeFetcher) FetchSubmissions(ctx context.Context, _ string) ([]model.Submission, error) {
	f.subsCalls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	return []model.Submission{
		{ID: 1, Verdict: model.VerdictOK, ProgrammingLanguage: "Go", Problem: model.Problem{Name: "A", Rating: 1200, Rated: true, Tags: []string{"dp"}}},
		{ID: 2, Verdict: model.VerdictOK, ProgrammingLanguage: "Go", Problem: model.Problem{Name: "A", Rating: 1200, Rated: true, Tags: []string{"dp"}}},
		{ID: 3, Verdict: model.VerdictWrongAnswer, Problem: model.Problem{Name: "B", Rating: 1500, Rated: true, Tags: []string{"math"}}},
	}, nil
}

func (f *fakeFetcher) FetchBlogEntries(context.Context, string) ([]model.BlogEntry, error) {
	return []model.BlogEntry{{ID: 1, Title: "Hello"}}, nil
}

type memSnapshotRepo struct {
	mu    sync.Mutex
	saved []*model.Snapshot
	err   error
}

func (r *memSnapshotRepo) Save(_ context.Context, snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, snap)
	return nil
}

func (r *memSnapshotRepo) Latest(ctx context.Context, handle string) (*model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if strings.EqualFold(r.saved[i].Handle, handle) {
			return r.saved[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memSnapshotRepo) History(_ context.Context, handle string, limit int) ([]model.SnapshotSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SnapshotSummary
	for i := len(r.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.EqualFold(r.saved[i].Handle, handle) {
			out = append(out, r.saved[i].Summary())
		}
	}
	return out, nil
}

func (r *memSnapshotRepo) LatestSummaries(ctx context.Context, handles []string) ([]model.SnapshotSummary, error) {
	var out []model.SnapshotSummary
	for _, h := range handles {
		snap, err := r.Latest(ctx, h)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		out = append(out, snap.Summary())
	}
	return out, nil
}

type memTrackedRepo struct {
	mu      sync.Mutex
	handles map[string]model.TrackedHandle
}

func newMemTrackedRepo() *memTrackedRepo {
	return &memTrackedRepo{handles: map[string]model.TrackedHandle{}}
}

func (r *memTrackedRepo) Add(_ context.Context, handle string, addedBy *string) (*model.TrackedHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(handle)
	th, ok := r.handles[key]
	if !ok {
		th = model.TrackedHandle{Handle: key, AddedBy: addedBy, CreatedAt: time.Now()}
		r.handles[key] = th
	}
	return &th, nil
}

func (r *memTrackedRepo) Remove(_ context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(handle)
	if _, ok := r.handles[key]; !ok {
		return common.ErrNotFound
	}
	delete(r.handles, key)
	return nil
}

func (r *memTrackedRepo) List(context.Context) ([]model.TrackedHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TrackedHandle
	for _, th := range r.handles {
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.RefreshJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]*model.RefreshJob{}}
}

func (r *memJobRepo) Create(_ context.Context, job *model.RefreshJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*model.RefreshJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *memJobRepo) UpdateStatus(_ context.Context, id, status string, lastError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return common.ErrNotFound
	}
	job.Status = status
	job.LastError = lastError
	return nil
}

func (r *memJobRepo) IncrementAttempts(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return common.ErrNotFound
	}
	job.Attempts++
	return nil
}

func (r *memJobRepo) Complete(_ context.Context, id, snapshotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return common.ErrNotFound
	}
	job.Status = model.JobStatusCompleted
	job.SnapshotID = &snapshotID
	job.LastError = nil
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = map[string]*model.User{}
	}
	if _, ok := r.users[user.Username]; ok {
		return common.ErrConflict
	}
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakePusher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (p *fakePusher) Push(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}
