package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/domain"
)

// YTDLPRunner supervises one yt-dlp invocation: spawn, stream output
// through the progress parser, reap on every exit path. One instance per
// running job; instances are not reused.
type YTDLPRunner struct {
	binary  string
	grace   time.Duration
	spec    domain.JobSpec
	onEvent func(domain.ProgressEvent)
	onLine  func(string)
	logger  *zap.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	cancelled bool
	done      chan struct{}

	lastError   string
	lastWarning string
}

// NewRunnerFactory returns a factory producing one runner per execution
func NewRunnerFactory(cfg *domain.DownloadConfig, logger *zap.Logger) domain.RunnerFactory {
	return func(spec domain.JobSpec, onEvent func(domain.ProgressEvent), onLine func(string)) domain.Runner {
		return &YTDLPRunner{
			binary:  cfg.YTDLPBinary,
			grace:   cfg.KillGrace,
			spec:    spec,
			onEvent: onEvent,
			onLine:  onLine,
			logger:  logger,
			done:    make(chan struct{}),
		}
	}
}

// Run spawns the tool and blocks until it exits. Returns nil on exit 0,
// ErrCancelled after a Cancel, *SpawnError when the process never started
// and *RuntimeFailure for a nonzero exit.
func (r *YTDLPRunner) Run(ctx context.Context) error {
	args := append([]string{"--newline"}, r.spec.Args...)
	args = append(args, r.spec.URL)

	if r.spec.OutputDir != "" {
		if err := os.MkdirAll(r.spec.OutputDir, 0755); err != nil {
			close(r.done)
			return &domain.SpawnError{Binary: r.binary, Err: err}
		}
	}

	cmd := exec.Command(r.binary, args...)
	cmd.Dir = r.spec.OutputDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		close(r.done)
		return &domain.SpawnError{Binary: r.binary, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		close(r.done)
		return &domain.SpawnError{Binary: r.binary, Err: err}
	}

	r.emitLine("$ " + ShellEscapeCommand(r.binary, args...))

	if err := cmd.Start(); err != nil {
		close(r.done)
		return &domain.SpawnError{Binary: r.binary, Err: err}
	}

	r.mu.Lock()
	r.cmd = cmd
	alreadyCancelled := r.cancelled
	r.mu.Unlock()
	if alreadyCancelled {
		_ = cmd.Process.Kill()
	}

	// a context cancellation (server shutdown) stops the process the same
	// way a user cancel does
	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.Cancel()
		case <-ctxDone:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go r.stream(stdout, &wg)
	go r.stream(stderr, &wg)
	wg.Wait()

	waitErr := cmd.Wait()
	close(r.done)
	close(ctxDone)

	if r.wasCancelled() {
		r.logger.Info("Download cancelled",
			zap.String("url", r.spec.URL))
		return domain.ErrCancelled
	}

	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		r.onEvent(domain.ProgressEvent{Kind: domain.EventProcessExited, ExitCode: code})

		detail := r.failureDetail(code)
		r.logger.Warn("Download failed",
			zap.String("url", r.spec.URL),
			zap.Int("exit_code", code),
			zap.String("detail", detail))
		return &domain.RuntimeFailure{ExitCode: code, Detail: detail}
	}

	r.onEvent(domain.ProgressEvent{Kind: domain.EventProcessExited, ExitCode: 0})
	return nil
}

// Cancel terminates the process: graceful signal first, forced kill if it
// ignores the signal past the grace period. No-op once exited.
func (r *YTDLPRunner) Cancel() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	cmd := r.cmd
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	select {
	case <-r.done:
		return
	default:
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)
	go func() {
		select {
		case <-r.done:
		case <-time.After(r.grace):
			_ = cmd.Process.Kill()
		}
	}()
}

// stream pumps one pipe through the parser. Lines and their events are
// delivered in read order; unrecognized lines still land in the log.
func (r *YTDLPRunner) stream(pipe io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	parser := NewProgressParser()
	buf := make([]byte, 4096)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			for _, pl := range parser.Feed(buf[:n]) {
				r.handleLine(pl)
			}
		}
		if err != nil {
			for _, pl := range parser.Flush() {
				r.handleLine(pl)
			}
			return
		}
	}
}

func (r *YTDLPRunner) handleLine(pl ParsedLine) {
	r.emitLine(pl.Raw)
	if pl.Event == nil {
		return
	}

	switch pl.Event.Kind {
	case domain.EventError:
		r.mu.Lock()
		r.lastError = pl.Event.Text
		r.mu.Unlock()
	case domain.EventWarning:
		// warnings are log-only; kept as failure detail fallback
		r.mu.Lock()
		r.lastWarning = pl.Event.Text
		r.mu.Unlock()
	}

	if r.onEvent != nil {
		r.onEvent(*pl.Event)
	}
}

func (r *YTDLPRunner) emitLine(line string) {
	if r.onLine != nil {
		r.onLine(line)
	}
}

func (r *YTDLPRunner) wasCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *YTDLPRunner) failureDetail(code int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastError != "" {
		return r.lastError
	}
	if r.lastWarning != "" {
		return r.lastWarning
	}
	return fmt.Sprintf("yt-dlp exited with code %d", code)
}
