package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/domain"
	"github.com/yourusername/ytq-go/pkg/logger"
)

// Notification is pushed to subscribers on every job transition and on
// every progress event, so the UI reflects the queue without polling.
type Notification struct {
	JobID  string                `json:"job_id"`
	Status domain.JobStatus      `json:"status"`
	Event  *domain.ProgressEvent `json:"event,omitempty"`
	Job    *domain.Job           `json:"job,omitempty"`
}

// Notifier receives terminal-state notifications for desktop alerting
type Notifier interface {
	NotifyJobStarted(job *domain.Job)
	NotifyJobFinished(job *domain.Job)
}

// QueueScheduler owns the ordered job queue. All mutation of jobs goes
// through it; readers get copies. Jobs run strictly one at a time under
// the default worker count of 1, and a job's failure never halts the
// queue.
type QueueScheduler struct {
	repo        domain.JobRepository
	newRunner   domain.RunnerFactory
	notifier    Notifier
	multiLogger *logger.MultiLogger
	workerCount int

	mu         sync.Mutex
	jobs       []*domain.Job
	runners    map[string]domain.Runner
	cancelling map[string]bool
	paused     bool
	running    bool
	stopChan   chan struct{}
	wake       chan struct{}
	workerWg   sync.WaitGroup

	subMu  sync.RWMutex
	subs   map[int]chan Notification
	nextID int
}

// NewQueueScheduler creates a scheduler. workerCount < 1 is clamped to the
// default of one worker.
func NewQueueScheduler(
	repo domain.JobRepository,
	newRunner domain.RunnerFactory,
	notifier Notifier,
	multiLogger *logger.MultiLogger,
	workerCount int,
) *QueueScheduler {
	if workerCount < 1 {
		workerCount = 1
	}
	return &QueueScheduler{
		repo:        repo,
		newRunner:   newRunner,
		notifier:    notifier,
		multiLogger: multiLogger,
		workerCount: workerCount,
		runners:     make(map[string]domain.Runner),
		cancelling:  make(map[string]bool),
		stopChan:    make(chan struct{}),
		wake:        make(chan struct{}, 1),
		subs:        make(map[int]chan Notification),
	}
}

// Enqueue appends a new pending job for the spec and returns it
func (s *QueueScheduler) Enqueue(spec domain.JobSpec) (*domain.Job, error) {
	if spec.URL == "" {
		return nil, fmt.Errorf("job spec has no URL")
	}

	job := domain.NewJob(spec)

	// persist before the job becomes visible to workers; a failed insert
	// must not leave a runnable job behind
	if s.repo != nil {
		if err := s.repo.Create(job); err != nil {
			return nil, fmt.Errorf("failed to persist job: %w", err)
		}
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	if s.multiLogger != nil {
		s.multiLogger.LogQueueEvent("job_enqueued",
			zap.String("id", job.ID),
			zap.String("url", spec.URL),
			zap.String("title", spec.Title))
	}

	s.publish(Notification{JobID: job.ID, Status: job.Status, Job: job.Clone()})
	s.wakeWorkers()
	return job.Clone(), nil
}

// Restore loads persisted pending jobs into the queue, oldest first.
// Called once at startup before Start; orphaned running jobs must
// already have been failed by the repository.
func (s *QueueScheduler) Restore() (int, error) {
	if s.repo == nil {
		return 0, nil
	}

	pending, err := s.repo.FindByStatus(domain.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending jobs: %w", err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, pending...)
	s.mu.Unlock()

	if len(pending) > 0 && s.multiLogger != nil {
		s.multiLogger.LogQueueEvent("queue_restored", zap.Int("pending", len(pending)))
	}
	s.wakeWorkers()
	return len(pending), nil
}

// Start begins processing, or resumes after a Pause. Workers pop the
// earliest pending job; with one worker, jobs reach terminal state in the
// order they started.
func (s *QueueScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	wasPaused := s.paused
	s.paused = false
	alreadyRunning := s.running
	s.running = true
	if !alreadyRunning {
		// each run gets a fresh stop channel; the previous one was closed
		// by Stop and cannot be reused
		s.stopChan = make(chan struct{})
	}
	stop := s.stopChan
	s.mu.Unlock()

	if alreadyRunning {
		if wasPaused {
			if s.multiLogger != nil {
				s.multiLogger.LogQueueEvent("queue_resumed")
			}
			s.wakeWorkers()
		}
		return
	}

	if s.multiLogger != nil {
		s.multiLogger.LogQueueEvent("queue_started", zap.Int("workers", s.workerCount))
	}
	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(ctx, stop)
	}
}

// Pause finishes the in-flight job but starts no new one
func (s *QueueScheduler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()

	if s.multiLogger != nil {
		s.multiLogger.LogQueueEvent("queue_paused")
	}
}

// IsPaused reports whether new jobs are being held back
func (s *QueueScheduler) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stop halts the workers and waits for the in-flight job to finish
func (s *QueueScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stopChan
	s.mu.Unlock()

	close(stop)
	s.workerWg.Wait()

	if s.multiLogger != nil {
		s.multiLogger.LogQueueEvent("queue_stopped")
	}
}

// CancelJob cancels one job. Pending jobs are cancelled in place and never
// spawn a process; running jobs get their process terminated, graceful
// first. Cancelling a terminal job is an error.
func (s *QueueScheduler) CancelJob(id string) error {
	s.mu.Lock()
	job := s.findLocked(id)
	if job == nil {
		s.mu.Unlock()
		return domain.ErrJobNotFound
	}

	switch {
	case job.IsPending():
		if err := job.Transition(domain.StatusCancelled); err != nil {
			s.mu.Unlock()
			return err
		}
		snapshot := job.Clone()
		s.mu.Unlock()
		s.persist(snapshot)
		s.logTransition(snapshot)
		s.publish(Notification{JobID: id, Status: domain.StatusCancelled, Job: snapshot})
		return nil

	case job.IsRunning():
		s.cancelling[id] = true
		runner := s.runners[id]
		s.mu.Unlock()
		if runner != nil {
			runner.Cancel()
		}
		return nil

	default:
		s.mu.Unlock()
		return fmt.Errorf("job %s already %s", id, job.Status)
	}
}

// Reorder moves a pending job to newIndex within the queue. Running and
// terminal jobs keep their positions; cancel first.
func (s *QueueScheduler) Reorder(id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := -1
	for i, j := range s.jobs {
		if j.ID == id {
			cur = i
			break
		}
	}
	if cur < 0 {
		return domain.ErrJobNotFound
	}
	if !s.jobs[cur].IsPending() {
		return domain.ErrJobNotPending
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(s.jobs) {
		newIndex = len(s.jobs) - 1
	}

	job := s.jobs[cur]
	s.jobs = append(s.jobs[:cur], s.jobs[cur+1:]...)
	s.jobs = append(s.jobs[:newIndex], append([]*domain.Job{job}, s.jobs[newIndex:]...)...)
	return nil
}

// Remove deletes a job from the queue. Pending and terminal jobs only; a
// running job must be cancelled first.
func (s *QueueScheduler) Remove(id string) error {
	s.mu.Lock()
	for i, j := range s.jobs {
		if j.ID != id {
			continue
		}
		if j.IsRunning() {
			s.mu.Unlock()
			return fmt.Errorf("job %s is running, cancel it first", id)
		}
		s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		s.mu.Unlock()
		if s.repo != nil {
			return s.repo.Delete(id)
		}
		return nil
	}
	s.mu.Unlock()
	return domain.ErrJobNotFound
}

// Jobs returns a copy-on-read snapshot of the queue in order
func (s *QueueScheduler) Jobs() []*domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	return out
}

// GetJob returns a snapshot of one job
func (s *QueueScheduler) GetJob(id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job := s.findLocked(id); job != nil {
		return job.Clone(), nil
	}
	return nil, domain.ErrJobNotFound
}

// JobLog returns the output log captured for one job so far
func (s *QueueScheduler) JobLog(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job := s.findLocked(id); job != nil {
		return job.LogText(), nil
	}
	return "", domain.ErrJobNotFound
}

// Stats returns per-status counts for the persisted queue history
func (s *QueueScheduler) Stats() (*domain.JobStats, error) {
	if s.repo != nil {
		return s.repo.GetStats()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &domain.JobStats{Total: int64(len(s.jobs))}
	for _, j := range s.jobs {
		switch j.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusRunning:
			stats.Running++
		case domain.StatusSucceeded:
			stats.Succeeded++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// Subscribe registers for job notifications. The returned function
// unsubscribes; slow consumers drop notifications rather than block the
// scheduler.
func (s *QueueScheduler) Subscribe() (<-chan Notification, func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan Notification, 64)
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.subMu.Unlock()
	}
}

// worker pops the earliest pending job and blocks until it reaches a
// terminal state before starting the next one.
func (s *QueueScheduler) worker(ctx context.Context, stop <-chan struct{}) {
	defer s.workerWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		job := s.claimNext()
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-s.wake:
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		s.runJob(ctx, job)
	}
}

// claimNext transitions the earliest pending job to running, or returns
// nil when the queue is paused or has nothing pending.
func (s *QueueScheduler) claimNext() *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return nil
	}
	for _, j := range s.jobs {
		if !j.IsPending() {
			continue
		}
		if err := j.Transition(domain.StatusRunning); err != nil {
			continue
		}
		return j
	}
	return nil
}

func (s *QueueScheduler) runJob(ctx context.Context, job *domain.Job) {
	runner := s.newRunner(job.Spec, s.eventFunc(job.ID), s.lineFunc(job.ID))

	s.mu.Lock()
	s.runners[job.ID] = runner
	cancelRequested := s.cancelling[job.ID]
	s.mu.Unlock()

	// a cancel issued between the claim and the registration above found
	// no runner to signal; deliver it now
	if cancelRequested {
		runner.Cancel()
	}

	snapshot := s.snapshot(job.ID)
	s.persist(snapshot)
	s.logTransition(snapshot)
	s.publish(Notification{JobID: job.ID, Status: domain.StatusRunning, Job: snapshot})
	if s.notifier != nil {
		s.notifier.NotifyJobStarted(snapshot)
	}

	err := runner.Run(ctx)

	s.mu.Lock()
	delete(s.runners, job.ID)
	wasCancelled := s.cancelling[job.ID]
	delete(s.cancelling, job.ID)

	var final domain.JobStatus
	switch {
	case errors.Is(err, domain.ErrCancelled) || wasCancelled:
		final = domain.StatusCancelled
	case err != nil:
		final = domain.StatusFailed
		job.ErrorDetail = err.Error()
	default:
		final = domain.StatusSucceeded
	}
	if terr := job.Transition(final); terr != nil && s.multiLogger != nil {
		s.multiLogger.LogAppError("Job transition rejected",
			zap.String("id", job.ID), zap.Error(terr))
	}
	snapshot = job.Clone()
	s.mu.Unlock()

	s.persist(snapshot)
	s.logTransition(snapshot)
	s.publish(Notification{JobID: job.ID, Status: snapshot.Status, Job: snapshot})
	if s.notifier != nil {
		s.notifier.NotifyJobFinished(snapshot)
	}
}

// eventFunc folds runner events into the owning job under the queue lock
func (s *QueueScheduler) eventFunc(id string) func(domain.ProgressEvent) {
	return func(ev domain.ProgressEvent) {
		s.mu.Lock()
		job := s.findLocked(id)
		if job == nil || !job.IsRunning() {
			s.mu.Unlock()
			return
		}
		job.ApplyEvent(ev)
		snapshot := job.Clone()
		s.mu.Unlock()

		e := ev
		s.publish(Notification{JobID: id, Status: snapshot.Status, Event: &e, Job: snapshot})
	}
}

// lineFunc appends raw output to the job's log and mirrors it to the
// per-day download log file.
func (s *QueueScheduler) lineFunc(id string) func(string) {
	return func(line string) {
		s.mu.Lock()
		if job := s.findLocked(id); job != nil {
			job.AppendLog(line)
		}
		s.mu.Unlock()

		if s.multiLogger != nil {
			s.multiLogger.WriteJobOutput(id, line)
		}
	}
}

func (s *QueueScheduler) findLocked(id string) *domain.Job {
	for _, j := range s.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (s *QueueScheduler) snapshot(id string) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job := s.findLocked(id); job != nil {
		return job.Clone()
	}
	return nil
}

func (s *QueueScheduler) persist(job *domain.Job) {
	if s.repo == nil || job == nil {
		return
	}
	if err := s.repo.Update(job); err != nil && s.multiLogger != nil {
		s.multiLogger.LogAppError("Failed to persist job",
			zap.String("id", job.ID), zap.Error(err))
	}
}

func (s *QueueScheduler) logTransition(job *domain.Job) {
	if s.multiLogger == nil || job == nil {
		return
	}
	fields := []zap.Field{
		zap.String("id", job.ID),
		zap.String("url", job.Spec.URL),
		zap.String("status", string(job.Status)),
	}
	if job.ErrorDetail != "" {
		fields = append(fields, zap.String("error", job.ErrorDetail))
	}
	s.multiLogger.LogQueueEvent("job_"+string(job.Status), fields...)
}

func (s *QueueScheduler) publish(n Notification) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- n:
		default:
			// slow consumer, drop rather than stall the queue
		}
	}
}

func (s *QueueScheduler) wakeWorkers() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
