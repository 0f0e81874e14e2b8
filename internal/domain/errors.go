package domain

import (
	"errors"
	"fmt"
)

// Configuration errors are rejected before any process is spawned and
// surfaced synchronously to the caller.
var (
	// ErrNothingSelected means both video and audio were set to "none"
	ErrNothingSelected = errors.New("nothing to download: both video and audio set to none")

	// ErrEmptySelection means no selection and no override were given
	ErrEmptySelection = errors.New("empty format selection")

	// ErrCancelled is returned by a runner whose process was terminated on
	// request. It marks the job cancelled, never failed.
	ErrCancelled = errors.New("download cancelled")

	// ErrJobNotFound is returned for lookups of unknown job ids
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotPending guards operations that only apply to queued jobs
	ErrJobNotPending = errors.New("job is not pending")
)

// SpawnError means the external tool could not be started at all. The job
// fails immediately with no output log.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// RuntimeFailure means the tool ran and exited nonzero. Detail carries the
// last error or warning text observed, or a generic exit-code message.
type RuntimeFailure struct {
	ExitCode int
	Detail   string
}

func (e *RuntimeFailure) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("exited with code %d", e.ExitCode)
}
