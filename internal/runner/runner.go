// Package runner materializes install scripts as executable temp
// files and runs them through a shell with timeouts, output size
// limits, and a cap on concurrent executions.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Defaults applied when the corresponding Runner field is zero.
const (
	DefaultShell         = "bash"
	DefaultTimeout       = 10 * time.Minute
	DefaultMaxOutput     = 1 << 20 // per stream
	DefaultMaxConcurrent = 4
)

// waitDelay bounds how long Run waits for the output pipes after the
// shell exits or the deadline kills it. Install scripts routinely
// leave daemons behind that inherit the pipes and would otherwise
// hold Run open forever.
const waitDelay = 2 * time.Second

// Runner executes materialized scripts. The zero value is usable;
// zero fields fall back to the package defaults.
type Runner struct {
	Shell         string        // interpreter handed the script path
	Timeout       time.Duration // wall-clock limit per run
	MaxOutput     int           // byte cap per output stream
	MaxConcurrent int           // simultaneous executions
	Workdir       string        // working directory, "" = inherited

	semOnce sync.Once
	sem     chan struct{}
}

// Run executes the script and captures the outcome. The script file
// is removed before Run returns, on every path: success, non-zero
// exit, timeout, cancellation, and spawn failure.
//
// A non-zero exit is not an error; it comes back in Result.ExitCode.
// An error return means the script never ran to completion under the
// shell: the semaphore wait was cancelled, or the process could not
// be spawned.
func (r *Runner) Run(ctx context.Context, script *ScriptFile) (*Result, error) {
	defer script.Remove()

	release, err := r.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for run slot: %w", err)
	}
	defer release()

	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}
	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runID := uuid.New().String()
	slog.InfoContext(ctx, "executing install script",
		"run_id", runID, "shell", shell, "script", script.Path)

	cmd := exec.CommandContext(ctx, shell, script.Path)
	cmd.Dir = r.Workdir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(runErr, exec.ErrWaitDelay):
			// The shell exited but something it left behind kept the
			// pipes open past the grace period. The exit status is
			// still real.
			exitCode = cmd.ProcessState.ExitCode()
		case timedOut:
			// Deadline hit before the process could report an exit
			// status. Nothing ran to completion.
			exitCode = -1
		default:
			// Shell not found or exec refused.
			return nil, fmt.Errorf("running %s: %w", shell, runErr)
		}
	}

	outText, outClean := decode(stdout.Bytes())
	errText, errClean := decode(stderr.Bytes())

	res := &Result{
		RunID:         runID,
		ExitCode:      exitCode,
		Stdout:        outText,
		Stderr:        errText,
		Truncated:     stdout.Len() >= maxOutput || stderr.Len() >= maxOutput,
		TimedOut:      timedOut,
		DecodeWarning: !outClean || !errClean,
		Duration:      duration,
	}
	slog.InfoContext(ctx, "install script finished",
		"run_id", runID, "exit_code", res.ExitCode,
		"timed_out", res.TimedOut, "duration_ms", res.DurationMilli())
	return res, nil
}

// acquire blocks until a run slot is free or ctx is done. The
// semaphore is sized from MaxConcurrent on first use.
func (r *Runner) acquire(ctx context.Context) (release func(), err error) {
	r.semOnce.Do(func() {
		n := r.MaxConcurrent
		if n <= 0 {
			n = DefaultMaxConcurrent
		}
		r.sem = make(chan struct{}, n)
	})
	select {
	case r.sem <- struct{}{}:
		return func() { <-r.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// decode turns captured bytes into trimmed text. Invalid UTF-8 is
// replaced rather than dropped; clean reports whether the input
// decoded without replacement.
func decode(b []byte) (text string, clean bool) {
	if utf8.Valid(b) {
		return strings.TrimSpace(string(b)), true
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "�")), false
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
