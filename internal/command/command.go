// Package command runs external programs (the download tool and the transcoding engine) behind a small [Runner]
// interface so pipeline stages can be exercised against a recording fake.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/desertthunder/spotdown/internal/shared"
)

// DefaultCaptureBytes bounds how much of each output stream is kept.
const DefaultCaptureBytes = 256 << 10

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	Truncated bool // Stdout or Stderr exceeded the capture limit
}

// Failed reports a non-zero exit.
func (r Result) Failed() bool {
	return r.ExitCode != 0
}

// Runner executes a program to completion.
//
// A non-zero exit is reported through [Result.ExitCode] with a nil error; the error is reserved for processes that
// could not be started or were cancelled.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner implements [Runner] with [os/exec].
type ExecRunner struct {
	MaxCapture int      // Per-stream capture limit in bytes
	Env        []string // Extra environment entries appended to the current environment
}

// NewExecRunner creates an [ExecRunner] with the default capture limit.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{MaxCapture: DefaultCaptureBytes}
}

// Run starts name with args and waits for it. Output beyond the capture limit is dropped.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	outBuf := &limitedBuffer{max: r.MaxCapture}
	errBuf := &limitedBuffer{max: r.MaxCapture}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	if err := cmd.Start(); err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return Result{ExitCode: -1}, fmt.Errorf("%w: program %s not found", shared.ErrCommandStart, name)
		}
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s: %v", shared.ErrCommandStart, name, err)
	}

	runErr := cmd.Wait()
	res := Result{
		Stdout:    outBuf.String(),
		Stderr:    errBuf.String(),
		Truncated: outBuf.truncated || errBuf.truncated,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("%s execution failed: %w", name, runErr)
	}
	return res, nil
}

// String renders a command line for logging.
func String(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{name}, args...) {
		if strings.ContainsAny(p, " \t\"'") {
			p = fmt.Sprintf("%q", p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

type limitedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.max <= 0 {
		return n, nil
	}
	remain := b.max - b.buf.Len()
	if remain > 0 {
		if remain > len(p) {
			remain = len(p)
		}
		_, _ = b.buf.Write(p[:remain])
	}
	if len(p) > remain {
		b.truncated = true
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
