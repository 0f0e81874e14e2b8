package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytq-go/internal/domain"
)

// fakeRunner scripts one process execution without spawning anything
type fakeRunner struct {
	spec    domain.JobSpec
	onEvent func(domain.ProgressEvent)
	onLine  func(string)
	run     func(r *fakeRunner, ctx context.Context) error

	mu        sync.Mutex
	cancelled bool
	cancelCh  chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context) error {
	if r.run != nil {
		return r.run(r, ctx)
	}
	return nil
}

func (r *fakeRunner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cancelled {
		r.cancelled = true
		close(r.cancelCh)
	}
}

func (r *fakeRunner) wasCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// fakeFactory records every runner it creates, in creation order
type fakeFactory struct {
	mu      sync.Mutex
	runners []*fakeRunner
	run     func(r *fakeRunner, ctx context.Context) error
}

func (f *fakeFactory) factory() domain.RunnerFactory {
	return func(spec domain.JobSpec, onEvent func(domain.ProgressEvent), onLine func(string)) domain.Runner {
		r := &fakeRunner{
			spec:     spec,
			onEvent:  onEvent,
			onLine:   onLine,
			run:      f.run,
			cancelCh: make(chan struct{}),
		}
		f.mu.Lock()
		f.runners = append(f.runners, r)
		f.mu.Unlock()
		return r
	}
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runners)
}

func (f *fakeFactory) runner(i int) *fakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runners[i]
}

func (f *fakeFactory) startOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, 0, len(f.runners))
	for _, r := range f.runners {
		urls = append(urls, r.spec.URL)
	}
	return urls
}

func spec(url string) domain.JobSpec {
	return domain.JobSpec{URL: url, Args: []string{"-f", "best"}}
}

func waitForStatus(t *testing.T, s *QueueScheduler, id string, want domain.JobStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := s.GetJob(id)
		return err == nil && job.Status == want
	}, 3*time.Second, 10*time.Millisecond, "job %s never reached %s", id, want)
}

func TestSchedulerRunsJobsInOrder(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)

	s.Start(context.Background())
	defer s.Stop()

	j1, err := s.Enqueue(spec("https://example.com/1"))
	require.NoError(t, err)
	j2, err := s.Enqueue(spec("https://example.com/2"))
	require.NoError(t, err)
	j3, err := s.Enqueue(spec("https://example.com/3"))
	require.NoError(t, err)

	waitForStatus(t, s, j1.ID, domain.StatusSucceeded)
	waitForStatus(t, s, j2.ID, domain.StatusSucceeded)
	waitForStatus(t, s, j3.ID, domain.StatusSucceeded)

	assert.Equal(t, []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
	}, factory.startOrder())
}

func TestSchedulerProgressFlowsIntoJob(t *testing.T) {
	factory := &fakeFactory{
		run: func(r *fakeRunner, ctx context.Context) error {
			r.onLine("[download] 100% of 3.2MiB")
			pct := 100.0
			r.onEvent(domain.ProgressEvent{
				Kind:    domain.EventDownloadProgress,
				Percent: &pct,
				Size:    "3.2MiB",
			})
			return nil
		},
	}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	s.Start(context.Background())
	defer s.Stop()

	j, err := s.Enqueue(spec("https://example.com/v"))
	require.NoError(t, err)
	waitForStatus(t, s, j.ID, domain.StatusSucceeded)

	job, err := s.GetJob(j.ID)
	require.NoError(t, err)
	require.NotNil(t, job.Progress.Percent)
	assert.Equal(t, 100.0, *job.Progress.Percent)

	log, err := s.JobLog(j.ID)
	require.NoError(t, err)
	assert.Contains(t, log, "[download] 100% of 3.2MiB")
}

func TestSchedulerFailureDoesNotHaltQueue(t *testing.T) {
	factory := &fakeFactory{
		run: func(r *fakeRunner, ctx context.Context) error {
			if r.spec.URL == "https://example.com/bad" {
				r.onLine("ERROR: Video unavailable")
				return &domain.RuntimeFailure{ExitCode: 1, Detail: "Video unavailable"}
			}
			return nil
		},
	}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	s.Start(context.Background())
	defer s.Stop()

	bad, err := s.Enqueue(spec("https://example.com/bad"))
	require.NoError(t, err)
	good, err := s.Enqueue(spec("https://example.com/good"))
	require.NoError(t, err)

	waitForStatus(t, s, bad.ID, domain.StatusFailed)
	waitForStatus(t, s, good.ID, domain.StatusSucceeded)

	job, err := s.GetJob(bad.ID)
	require.NoError(t, err)
	assert.Contains(t, job.ErrorDetail, "Video unavailable")
}

func TestSchedulerCancelPendingNeverSpawns(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	// deliberately not started: the job must stay pending

	j, err := s.Enqueue(spec("https://example.com/v"))
	require.NoError(t, err)

	require.NoError(t, s.CancelJob(j.ID))

	job, err := s.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, job.Status)
	assert.Zero(t, factory.count())

	// cancelled is terminal, a second cancel is an error
	assert.Error(t, s.CancelJob(j.ID))
}

func TestSchedulerCancelRunning(t *testing.T) {
	factory := &fakeFactory{
		run: func(r *fakeRunner, ctx context.Context) error {
			select {
			case <-r.cancelCh:
				return domain.ErrCancelled
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	s.Start(context.Background())
	defer s.Stop()

	j, err := s.Enqueue(spec("https://example.com/v"))
	require.NoError(t, err)
	waitForStatus(t, s, j.ID, domain.StatusRunning)

	require.NoError(t, s.CancelJob(j.ID))
	waitForStatus(t, s, j.ID, domain.StatusCancelled)

	job, err := s.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, job.Status)
	assert.Empty(t, job.ErrorDetail)
}

func TestSchedulerCancelBeforeRunnerRegistered(t *testing.T) {
	var s *QueueScheduler
	factory := &fakeFactory{
		run: func(r *fakeRunner, ctx context.Context) error {
			select {
			case <-r.cancelCh:
				return domain.ErrCancelled
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	}

	// the cancel lands after the job turned running but before its runner
	// is registered; the scheduler must still signal the process
	base := factory.factory()
	newRunner := func(spec domain.JobSpec, onEvent func(domain.ProgressEvent), onLine func(string)) domain.Runner {
		r := base(spec, onEvent, onLine)
		for _, j := range s.Jobs() {
			if j.IsRunning() {
				require.NoError(t, s.CancelJob(j.ID))
			}
		}
		return r
	}

	s = NewQueueScheduler(nil, newRunner, nil, nil, 1)
	s.Start(context.Background())
	defer s.Stop()

	j, err := s.Enqueue(spec("https://example.com/v"))
	require.NoError(t, err)
	waitForStatus(t, s, j.ID, domain.StatusCancelled)

	require.Equal(t, 1, factory.count())
	assert.True(t, factory.runner(0).wasCancelled(), "process was never signalled")
}

// failingRepo rejects every insert; reads behave like an empty store
type failingRepo struct {
	createErr error
}

func (r *failingRepo) Create(job *domain.Job) error { return r.createErr }
func (r *failingRepo) Update(job *domain.Job) error { return nil }
func (r *failingRepo) Delete(id string) error       { return nil }
func (r *failingRepo) FindByID(id string) (*domain.Job, error) {
	return nil, domain.ErrJobNotFound
}
func (r *failingRepo) FindByStatus(status domain.JobStatus) ([]*domain.Job, error) {
	return nil, nil
}
func (r *failingRepo) FindAll() ([]*domain.Job, error)     { return nil, nil }
func (r *failingRepo) FailOrphanedRunning() (int64, error) { return 0, nil }
func (r *failingRepo) GetStats() (*domain.JobStats, error) { return &domain.JobStats{}, nil }

func TestSchedulerEnqueuePersistFailureLeavesNoJob(t *testing.T) {
	factory := &fakeFactory{}
	repo := &failingRepo{createErr: errors.New("disk full")}
	s := NewQueueScheduler(repo, factory.factory(), nil, nil, 1)
	s.Start(context.Background())
	defer s.Stop()

	_, err := s.Enqueue(spec("https://example.com/v"))
	require.Error(t, err)

	// the failed insert must not leave a runnable job for the ticker
	assert.Empty(t, s.Jobs())
	time.Sleep(600 * time.Millisecond)
	assert.Zero(t, factory.count())
}

func TestSchedulerStartAfterStop(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	ctx := context.Background()

	s.Start(ctx)
	j1, err := s.Enqueue(spec("https://example.com/1"))
	require.NoError(t, err)
	waitForStatus(t, s, j1.ID, domain.StatusSucceeded)
	s.Stop()

	s.Start(ctx)
	defer s.Stop()
	j2, err := s.Enqueue(spec("https://example.com/2"))
	require.NoError(t, err)
	waitForStatus(t, s, j2.ID, domain.StatusSucceeded)
}

func TestSchedulerPauseHoldsPendingJobs(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	ctx := context.Background()
	s.Start(ctx)
	defer s.Stop()

	s.Pause()
	assert.True(t, s.IsPaused())

	j, err := s.Enqueue(spec("https://example.com/v"))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	job, err := s.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, job.Status)

	s.Start(ctx) // resume
	waitForStatus(t, s, j.ID, domain.StatusSucceeded)
}

func TestSchedulerReorderPendingOnly(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	// not started, all jobs stay pending

	j1, _ := s.Enqueue(spec("https://example.com/1"))
	j2, _ := s.Enqueue(spec("https://example.com/2"))
	j3, _ := s.Enqueue(spec("https://example.com/3"))

	require.NoError(t, s.Reorder(j3.ID, 0))

	jobs := s.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, j3.ID, jobs[0].ID)
	assert.Equal(t, j1.ID, jobs[1].ID)
	assert.Equal(t, j2.ID, jobs[2].ID)

	// out-of-range target is clamped, not rejected
	require.NoError(t, s.Reorder(j3.ID, 99))
	jobs = s.Jobs()
	assert.Equal(t, j3.ID, jobs[2].ID)

	require.NoError(t, s.CancelJob(j1.ID))
	assert.ErrorIs(t, s.Reorder(j1.ID, 0), domain.ErrJobNotPending)

	assert.ErrorIs(t, s.Reorder("nope", 0), domain.ErrJobNotFound)
}

func TestSchedulerRemove(t *testing.T) {
	factory := &fakeFactory{
		run: func(r *fakeRunner, ctx context.Context) error {
			select {
			case <-r.cancelCh:
				return domain.ErrCancelled
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)
	s.Start(context.Background())
	defer s.Stop()

	running, _ := s.Enqueue(spec("https://example.com/running"))
	pending, _ := s.Enqueue(spec("https://example.com/pending"))
	waitForStatus(t, s, running.ID, domain.StatusRunning)

	assert.Error(t, s.Remove(running.ID), "running jobs cannot be removed")
	require.NoError(t, s.Remove(pending.ID))
	_, err := s.GetJob(pending.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	require.NoError(t, s.CancelJob(running.ID))
	waitForStatus(t, s, running.ID, domain.StatusCancelled)
	require.NoError(t, s.Remove(running.ID))
}

func TestSchedulerSubscribe(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Start(context.Background())
	defer s.Stop()

	j, err := s.Enqueue(spec("https://example.com/v"))
	require.NoError(t, err)

	seen := map[domain.JobStatus]bool{}
	deadline := time.After(3 * time.Second)
	for !seen[domain.StatusSucceeded] {
		select {
		case n := <-events:
			assert.Equal(t, j.ID, n.JobID)
			seen[n.Status] = true
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}

	assert.True(t, seen[domain.StatusPending])
	assert.True(t, seen[domain.StatusRunning])
}

func TestSchedulerSnapshotsAreCopies(t *testing.T) {
	factory := &fakeFactory{}
	s := NewQueueScheduler(nil, factory.factory(), nil, nil, 1)

	j, _ := s.Enqueue(spec("https://example.com/v"))

	snap, err := s.GetJob(j.ID)
	require.NoError(t, err)

	// mutating the snapshot must not reach the scheduler's copy
	snap.Status = domain.StatusFailed
	snap.Spec.Args[0] = "mangled"

	again, err := s.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
	assert.Equal(t, "-f", again.Spec.Args[0])
}
