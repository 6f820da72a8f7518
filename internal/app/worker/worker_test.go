package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
	"cfstats/internal/platform/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type chanQueue struct {
	ch chan string
}

func (q *chanQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
		return "", queue.ErrEmpty
	case id := <-q.ch:
		return id, nil
	}
}

type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*model.RefreshJob
}

func newJobStore(jobs ...*model.RefreshJob) *jobStore {
	s := &jobStore{jobs: map[string]*model.RefreshJob{}}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *jobStore) Create(_ context.Context, job *model.RefreshJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *jobStore) GetByID(_ context.Context, id string) (*model.RefreshJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *jobStore) UpdateStatus(_ context.Context, id, status string, lastError *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id].Status = status
	s.jobs[id].LastError = lastError
	return nil
}

func (s *jobStore) IncrementAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id].Attempts++
	return nil
}

func (s *jobStore) Complete(_ context.Context, id, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id].Status = model.JobStatusCompleted
	s.jobs[id].SnapshotID = &snapshotID
	return nil
}

func (s *jobStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id].Status
}

type fakeRefresher struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (r *fakeRefresher) Refresh(ctx context.Context, handle string) (*model.Snapshot, error) {
	r.calls.Add(1)
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &model.Snapshot{ID: "snap-" + handle, Handle: handle}, nil
}

type staticHandles []string

func (s staticHandles) Handles(context.Context) ([]string, error) { return s, nil }

func queuedJob(id, handle string) *model.RefreshJob {
	return &model.RefreshJob{ID: id, Handle: handle, Reason: model.RefreshReasonManual, Status: model.JobStatusQueued}
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	token, ok, err := l.TryLock(ctx, "h")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(ctx, "h")
	assert.False(t, ok)

	released, _ := l.Unlock(ctx, "h", "wrong")
	assert.False(t, released)
	released, _ = l.Unlock(ctx, "h", token)
	assert.True(t, released)

	_, ok, _ = l.TryLock(ctx, "h")
	assert.True(t, ok)
}

func TestProcessCompletesJob(t *testing.T) {
	jobs := newJobStore(queuedJob("j1", "Tourist"))
	w := NewRefreshWorker(&chanQueue{}, jobs, &fakeRefresher{}, NewLocalLocker(), nil)

	w.Process(context.Background(), "j1")

	job, _ := jobs.GetByID(context.Background(), "j1")
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.SnapshotID)
	assert.Equal(t, "snap-Tourist", *job.SnapshotID)
}

func TestProcessMarksFailure(t *testing.T) {
	jobs := newJobStore(queuedJob("j1", "ghost"))
	w := NewRefreshWorker(&chanQueue{}, jobs, &fakeRefresher{err: common.ErrNotFound}, NewLocalLocker(), nil)

	w.Process(context.Background(), "j1")

	job, _ := jobs.GetByID(context.Background(), "j1")
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.LastError)
}

func TestProcessSkipsWhenHandleLocked(t *testing.T) {
	locker := NewLocalLocker()
	_, ok, _ := locker.TryLock(context.Background(), "tourist")
	require.True(t, ok)

	ref := &fakeRefresher{}
	jobs := newJobStore(queuedJob("j1", "Tourist"))
	w := NewRefreshWorker(&chanQueue{}, jobs, ref, locker, nil)

	w.Process(context.Background(), "j1")

	assert.Equal(t, model.JobStatusSkipped, jobs.status("j1"))
	assert.Equal(t, int32(0), ref.calls.Load())
}

func TestProcessIgnoresFinishedJob(t *testing.T) {
	done := queuedJob("j1", "tourist")
	done.Status = model.JobStatusCompleted
	ref := &fakeRefresher{}
	w := NewRefreshWorker(&chanQueue{}, newJobStore(done), ref, NewLocalLocker(), nil)

	w.Process(context.Background(), "j1")
	assert.Equal(t, int32(0), ref.calls.Load())
}

func TestWorkerDrainsQueueAndStops(t *testing.T) {
	q := &chanQueue{ch: make(chan string)}
	jobs := newJobStore(queuedJob("j1", "a_user"), queuedJob("j2", "b_user"))
	w := NewRefreshWorker(q, jobs, &fakeRefresher{}, NewLocalLocker(), nil)
	w.popTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	q.ch <- "j1"
	q.ch <- "j2"
	require.Eventually(t, func() bool {
		return jobs.status("j1") == model.JobStatusCompleted && jobs.status("j2") == model.JobStatusCompleted
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

type failingQueue struct{ calls atomic.Int32 }

func (q *failingQueue) Pop(ctx context.Context, _ time.Duration) (string, error) {
	q.calls.Add(1)
	return "", errors.New("connection reset")
}

func TestWorkerBacksOffOnQueueErrors(t *testing.T) {
	q := &failingQueue{}
	w := NewRefreshWorker(q, newJobStore(), &fakeRefresher{}, NewLocalLocker(), nil)
	w.errBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Start(ctx)
	assert.Equal(t, int32(1), q.calls.Load())
}

func TestPollerSkipsInFlightHandle(t *testing.T) {
	ref := &fakeRefresher{release: make(chan struct{})}
	p := NewPoller(staticHandles{"alpha", "beta"}, ref, NewLocalLocker(), nil, time.Hour, 4, nil)
	ctx := context.Background()

	p.Tick(ctx)
	require.Eventually(t, func() bool { return ref.calls.Load() == 2 }, time.Second, time.Millisecond)

	// Both refreshes are still blocked, so a second tick starts nothing.
	p.Tick(ctx)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), ref.calls.Load())

	close(ref.release)
	p.Wait()

	p.Tick(ctx)
	p.Wait()
	assert.Equal(t, int32(4), ref.calls.Load())
}

func TestPollerSharesLockWithWorker(t *testing.T) {
	locker := NewLocalLocker()
	ref := &fakeRefresher{release: make(chan struct{})}
	p := NewPoller(staticHandles{"Tourist"}, ref, locker, nil, time.Hour, 1, nil)
	p.Tick(context.Background())
	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, time.Millisecond)

	jobs := newJobStore(queuedJob("j1", "tourist"))
	NewRefreshWorker(&chanQueue{}, jobs, ref, locker, nil).Process(context.Background(), "j1")
	assert.Equal(t, model.JobStatusSkipped, jobs.status("j1"))

	close(ref.release)
	p.Wait()
}

func TestPollerRunStopsCleanly(t *testing.T) {
	ref := &fakeRefresher{}
	p := NewPoller(staticHandles{"alpha"}, ref, NewLocalLocker(), nil, 5*time.Millisecond, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return ref.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

// peakRefresher records the highest number of overlapping Refresh calls.
type peakRefresher struct {
	mu      sync.Mutex
	running int
	peak    int
	calls   int
}

func (r *peakRefresher) Refresh(_ context.Context, handle string) (*model.Snapshot, error) {
	r.mu.Lock()
	r.running++
	r.calls++
	r.peak = max(r.peak, r.running)
	r.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	r.mu.Lock()
	r.running--
	r.mu.Unlock()
	return &model.Snapshot{ID: "snap-" + handle, Handle: handle}, nil
}

func TestPollerTickBoundsConcurrency(t *testing.T) {
	handles := make(staticHandles, 30)
	for i := range handles {
		handles[i] = fmt.Sprintf("user_%02d", i)
	}
	ref := &peakRefresher{}
	p := NewPoller(handles, ref, NewLocalLocker(), nil, time.Hour, 3, nil)

	p.Tick(context.Background())
	p.Wait()

	assert.Equal(t, 30, ref.calls)
	assert.LessOrEqual(t, ref.peak, 3)
	assert.Greater(t, ref.peak, 0)
}

func TestPollerDefaultConcurrency(t *testing.T) {
	handles := make(staticHandles, 10)
	for i := range handles {
		handles[i] = fmt.Sprintf("user_%02d", i)
	}
	ref := &peakRefresher{}
	p := NewPoller(handles, ref, NewLocalLocker(), nil, time.Hour, 0, nil)

	p.Tick(context.Background())
	p.Wait()

	assert.Equal(t, 10, ref.calls)
	assert.LessOrEqual(t, ref.peak, DefaultPollConcurrency)
}

func TestPollerHoldsLockUntilRefreshReturns(t *testing.T) {
	locker := NewLocalLocker()
	ref := &fakeRefresher{release: make(chan struct{})}
	p := NewPoller(staticHandles{"tourist"}, ref, locker, nil, time.Hour, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Tick(ctx)
	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, time.Millisecond)

	// The refresh keeps running after the poller is cancelled, so the
	// handle stays locked.
	cancel()
	time.Sleep(20 * time.Millisecond)
	_, ok, err := locker.TryLock(context.Background(), "tourist")
	require.NoError(t, err)
	assert.False(t, ok)

	close(ref.release)
	p.Wait()
	_, ok, _ = locker.TryLock(context.Background(), "tourist")
	assert.True(t, ok)
}

func TestProcessHoldsLockAfterCancel(t *testing.T) {
	locker := NewLocalLocker()
	ref := &fakeRefresher{release: make(chan struct{})}
	jobs := newJobStore(queuedJob("j1", "tourist"))
	w := NewRefreshWorker(&chanQueue{}, jobs, ref, locker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Process(ctx, "j1")
		close(done)
	}()
	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	_, ok, _ := locker.TryLock(context.Background(), "tourist")
	assert.False(t, ok)

	close(ref.release)
	<-done
	assert.Equal(t, model.JobStatusCompleted, jobs.status("j1"))
}

func TestPollerRecordsPollJobs(t *testing.T) {
	jobs := newJobStore()
	ref := &fakeRefresher{}
	p := NewPoller(staticHandles{"alpha"}, ref, NewLocalLocker(), jobs, time.Hour, 1, nil)

	p.Tick(context.Background())
	p.Wait()

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	require.Len(t, jobs.jobs, 1)
	for _, job := range jobs.jobs {
		assert.Equal(t, model.RefreshReasonPoll, job.Reason)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.Attempts)
		require.NotNil(t, job.SnapshotID)
		assert.Equal(t, "snap-alpha", *job.SnapshotID)
	}
}

func TestPollerRecordsFailedPollJob(t *testing.T) {
	jobs := newJobStore()
	ref := &fakeRefresher{err: common.ErrServiceUnavailable}
	p := NewPoller(staticHandles{"alpha"}, ref, NewLocalLocker(), jobs, time.Hour, 1, nil)

	p.Tick(context.Background())
	p.Wait()

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	require.Len(t, jobs.jobs, 1)
	for _, job := range jobs.jobs {
		assert.Equal(t, model.JobStatusFailed, job.Status)
		require.NotNil(t, job.LastError)
	}
}
