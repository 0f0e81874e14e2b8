package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a download job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// MediaMode narrows a job to one stream kind
type MediaMode string

const (
	ModeDefault   MediaMode = "default"    // whatever the format selection produces
	ModeAudioOnly MediaMode = "audio-only" // no video stream requested
	ModeVideoOnly MediaMode = "video-only" // no audio stream requested
)

// JobSpec is the immutable description of one download: what to fetch and
// the exact yt-dlp argument vector that fetches it. Never mutated after
// creation; the scheduler owns it once enqueued.
type JobSpec struct {
	URL       string    `json:"url" gorm:"not null"`
	Title     string    `json:"title"`
	Args      []string  `json:"args" gorm:"serializer:json"`
	OutputDir string    `json:"output_dir"`
	Mode      MediaMode `json:"mode" gorm:"default:default"`
	Subtitles bool      `json:"subtitles"`
}

// ProgressSnapshot is the latest parsed progress for a job. Pointer fields
// stay nil until the first matching output line arrives; "not yet known" is
// a different value from zero.
type ProgressSnapshot struct {
	Percent *float64 `json:"percent,omitempty"`
	Stage   string   `json:"stage,omitempty"`
	Rate    string   `json:"rate,omitempty"`
	ETA     string   `json:"eta,omitempty"`
}

// Job is a JobSpec plus its mutable run state. Mutated exclusively by the
// scheduler and the process runner; the UI only ever sees copies.
type Job struct {
	ID          string           `json:"id" gorm:"primaryKey"`
	Spec        JobSpec          `json:"spec" gorm:"embedded"`
	Status      JobStatus        `json:"status" gorm:"not null;index"`
	Progress    ProgressSnapshot `json:"progress" gorm:"embedded"`
	ErrorDetail string           `json:"error_detail,omitempty"`
	OutputLog   string           `json:"-" gorm:"type:text"`
	CreatedAt   time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`

	logLines []string
}

// NewJob creates a pending job for the given spec
func NewJob(spec JobSpec) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Spec:      spec,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// maxLogLines bounds the in-memory output log per job; the full text goes
// to the download log file as it streams.
const maxLogLines = 2000

// Transition moves the job to the given status, enforcing the only legal
// path pending -> running -> {succeeded, failed, cancelled}. Running is
// entered at most once; there is no retry edge.
func (j *Job) Transition(to JobStatus) error {
	ok := false
	switch j.Status {
	case StatusPending:
		ok = to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		ok = to == StatusSucceeded || to == StatusFailed || to == StatusCancelled
	}
	if !ok {
		return fmt.Errorf("invalid job transition %s -> %s", j.Status, to)
	}

	now := time.Now()
	j.Status = to
	j.UpdatedAt = now
	switch to {
	case StatusRunning:
		j.StartedAt = &now
	case StatusSucceeded, StatusFailed, StatusCancelled:
		j.FinishedAt = &now
		j.OutputLog = strings.Join(j.logLines, "\n")
	}
	return nil
}

// AppendLog appends one raw output line, keeping at most maxLogLines
func (j *Job) AppendLog(line string) {
	if len(j.logLines) >= maxLogLines {
		j.logLines = j.logLines[1:]
	}
	j.logLines = append(j.logLines, line)
}

// LogText returns the output log captured so far
func (j *Job) LogText() string {
	if j.IsTerminal() {
		return j.OutputLog
	}
	return strings.Join(j.logLines, "\n")
}

// ApplyEvent folds a progress event into the job's snapshot. Only the
// latest value per field is retained.
func (j *Job) ApplyEvent(ev ProgressEvent) {
	switch ev.Kind {
	case EventDownloadProgress:
		if ev.Percent != nil {
			p := *ev.Percent
			j.Progress.Percent = &p
		}
		if ev.Rate != "" {
			j.Progress.Rate = ev.Rate
		}
		if ev.ETA != "" {
			j.Progress.ETA = ev.ETA
		}
		if j.Progress.Stage == "" {
			j.Progress.Stage = StageDownloading
		}
	case EventStageChange:
		j.Progress.Stage = ev.Stage
	}
	j.UpdatedAt = time.Now()
}

// IsTerminal reports whether the job has finished one way or another
func (j *Job) IsTerminal() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed || j.Status == StatusCancelled
}

// IsPending reports whether the job is still waiting to run
func (j *Job) IsPending() bool {
	return j.Status == StatusPending
}

// IsRunning reports whether the job is currently executing
func (j *Job) IsRunning() bool {
	return j.Status == StatusRunning
}

// Clone returns a copy safe to hand to readers outside the scheduler
func (j *Job) Clone() *Job {
	c := *j
	c.logLines = nil
	if j.Progress.Percent != nil {
		p := *j.Progress.Percent
		c.Progress.Percent = &p
	}
	c.Spec.Args = append([]string(nil), j.Spec.Args...)
	return &c
}
