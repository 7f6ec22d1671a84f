package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/desertthunder/spotdown/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runConfig returns a copy of the loaded config with the download flags applied.
func (r *Runner) runConfig(cmd *cli.Command) *shared.Config {
	r.mu.Lock()
	cfg := *r.config
	r.mu.Unlock()

	if cmd.IsSet("workers") {
		cfg.Transcode.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("retries") {
		cfg.Acquisition.Retries = cmd.Int("retries")
	}
	if cmd.IsSet("base-dir") {
		derived := cfg.Paths.LogFile == filepath.Join(cfg.Paths.BaseDir, "download_log.txt")
		cfg.Paths.BaseDir = cmd.String("base-dir")
		if derived {
			cfg.Paths.LogFile = ""
		}
		cfg.ApplyDefaults()
	}
	return &cfg
}

// Download runs each link through the pipeline in order and prints a summary.
//
// An interrupt stops the batch before the next link starts. Failures of individual links are joined into the returned error.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one Spotify link is required", shared.ErrMissingArgument)
	}

	cfg := r.runConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	pipeline, err := r.buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	r.logger.Info("starting batch", "links", len(urls), "workers", cfg.Transcode.Workers, "base_dir", cfg.Paths.BaseDir)

	var (
		errs      []error
		succeeded []*tasks.RunResult
	)
	for i, url := range urls {
		if ctx.Err() != nil {
			r.writePlainln("⚠ Interrupted, skipping %d remaining link(s)", len(urls)-i)
			errs = append(errs, ctx.Err())
			break
		}

		r.writePlainHeader(fmt.Sprintf("[%d/%d] %s", i+1, len(urls), url))
		result, err := r.runOne(ctx, pipeline, url)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			r.writePlain("✗ %v\n", err)
			if hint := shared.Hint(err); hint != "" {
				r.writePlain("  → %s\n", hint)
			}
			continue
		}

		succeeded = append(succeeded, result)
		r.writePlain("✓ %s - %s: %d/%d tracks\n", result.Metadata.Artist, result.Metadata.Title, result.Converted, result.Total)
		r.writePlain("  Saved to %s\n", result.Dir)
	}

	r.writeSummary(succeeded, len(errs))
	return errors.Join(errs...)
}

// runOne runs a single link and echoes its progress messages as they arrive.
func (r *Runner) runOne(ctx context.Context, pipeline tasks.Pipeline, url string) (*tasks.RunResult, error) {
	progress := make(chan tasks.ProgressUpdate, 64)
	printed := make(chan struct{})

	go func() {
		defer close(printed)
		for update := range progress {
			r.writePlain("  %s\n", update.Message)
		}
	}()

	result, err := pipeline.Run(ctx, url, progress)
	close(progress)
	<-printed
	return result, err
}

func (r *Runner) writeSummary(succeeded []*tasks.RunResult, failed int) {
	tracks := 0
	for _, result := range succeeded {
		tracks += result.Converted
	}

	r.writePlainln("Summary")
	r.writePlain("  Collections: %d succeeded, %d failed\n", len(succeeded), failed)
	r.writePlain("  Tracks converted: %d\n", tracks)
}
