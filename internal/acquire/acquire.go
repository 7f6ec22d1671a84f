// Package acquire drives the external download tool for one collection.
//
// The preferred format is attempted first with bounded retries and exponential backoff. Only after every preferred
// attempt has failed does the [Orchestrator] switch to the fallback format (with its bitrate) and run the same loop
// once more.
package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/command"
	"github.com/desertthunder/spotdown/internal/shared"
)

// OutputTemplate is the file name template passed to the download tool.
const OutputTemplate = "{artists} - {title}.{output-ext}"

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Result describes a successful acquisition.
type Result struct {
	Dir      string // Collection directory holding the downloaded files
	Format   string // Format that succeeded
	Attempts int    // Total tool invocations, across both formats
}

type format struct {
	name    string
	bitrate string
}

// Orchestrator invokes the download tool with retry and fallback.
type Orchestrator struct {
	cfg     shared.AcquisitionConfig
	baseDir string
	runner  command.Runner
	logger  *log.Logger
	sleep   Sleeper
}

// New creates an [Orchestrator] writing collection directories under baseDir.
func New(cfg shared.AcquisitionConfig, baseDir string, runner command.Runner, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Orchestrator{
		cfg:     cfg,
		baseDir: baseDir,
		runner:  runner,
		logger:  shared.WithLogger(logger, "component", "acquire"),
		sleep:   wait,
	}
}

// SetSleeper replaces the backoff wait, used by tests to record delays instead of sleeping.
func (o *Orchestrator) SetSleeper(fn Sleeper) {
	if fn != nil {
		o.sleep = fn
	}
}

// Backoff returns the delay after a failed attempt: 2^attempt units, attempts counted from 1.
//
// The exponent is capped at [shared.MaxRetries], so later attempts wait as long as that one.
func Backoff(attempt int, unit time.Duration) time.Duration {
	attempt = min(attempt, shared.MaxRetries)
	return time.Duration(1<<attempt) * unit
}

// TargetDir returns the collection directory for artist and collection.
func (o *Orchestrator) TargetDir(artist, collection string) string {
	return filepath.Join(o.baseDir, shared.SanitizeFileName(artist+" - "+collection))
}

// Acquire downloads the collection at url into its target directory.
//
// Files left by an earlier partial run are kept; the tool is expected to skip tracks it already has.
// Returns [shared.ErrAcquisitionFailed] when both formats exhaust their attempts.
func (o *Orchestrator) Acquire(ctx context.Context, url, artist, collection string) (*Result, error) {
	dir := o.TargetDir(artist, collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	formats := []format{{name: o.cfg.PreferredFormat}}
	if o.cfg.FallbackFormat != "" {
		formats = append(formats, format{name: o.cfg.FallbackFormat, bitrate: o.cfg.FallbackBitrate})
	}

	total := 0
	for i, f := range formats {
		if i > 0 {
			o.logger.Warnf("all %s attempts failed, falling back to %s", formats[i-1].name, f.name)
		}

		ok, attempts, err := o.attemptFormat(ctx, url, dir, f)
		total += attempts
		if err != nil {
			return nil, err
		}
		if ok {
			o.logger.Info("acquisition complete", "dir", dir, "format", f.name, "attempts", total)
			return &Result{Dir: dir, Format: f.name, Attempts: total}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", shared.ErrAcquisitionFailed, url, total)
}

// attemptFormat runs up to retries+1 attempts for f. The error is non-nil only when ctx ends.
func (o *Orchestrator) attemptFormat(ctx context.Context, url, dir string, f format) (bool, int, error) {
	maxAttempts := o.cfg.Retries + 1
	args := o.Args(url, dir, f.name, f.bitrate)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		o.logger.Info("downloading", "format", f.name, "attempt", attempt, "of", maxAttempts)
		o.logger.Debug(command.String(o.cfg.Tool, args...))

		res, err := o.runner.Run(ctx, o.cfg.Tool, args...)
		if ctx.Err() != nil {
			return false, attempt, ctx.Err()
		}
		if err == nil && !res.Failed() {
			return true, attempt, nil
		}

		if err != nil {
			o.logger.Warn("download attempt failed", "format", f.name, "attempt", attempt, "error", err)
		} else {
			o.logger.Warn("download attempt failed", "format", f.name, "attempt", attempt,
				"exit", res.ExitCode, "stderr", shared.Tail(res.Stderr, 10), "truncated", res.Truncated)
		}

		if attempt < maxAttempts {
			delay := Backoff(attempt, o.cfg.BackoffUnit())
			o.logger.Infof("retrying in %v", delay)
			if err := o.sleep(ctx, delay); err != nil {
				return false, attempt, err
			}
		}
	}
	return false, maxAttempts, nil
}

// Args builds the download tool arguments for one attempt.
func (o *Orchestrator) Args(url, dir, formatName, bitrate string) []string {
	args := []string{
		"download", url,
		"--output", filepath.Join(dir, OutputTemplate),
		"--format", formatName,
	}
	if bitrate != "" {
		args = append(args, "--bitrate", bitrate)
	}
	if o.cfg.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(o.cfg.Threads))
	}
	return args
}

// CheckTool verifies that the download tool can be run and returns its reported version.
func (o *Orchestrator) CheckTool(ctx context.Context) (string, error) {
	res, err := o.runner.Run(ctx, o.cfg.Tool, "--version")
	if err != nil {
		return "", fmt.Errorf("%s is not installed or not on PATH: %w", o.cfg.Tool, err)
	}
	if res.Failed() {
		return "", fmt.Errorf("%w: %s --version exited with %d", shared.ErrServiceUnavailable, o.cfg.Tool, res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
