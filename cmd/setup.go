package main

import (
	"context"
	"errors"
	"strings"

	"github.com/desertthunder/spotdown/internal/acquire"
	"github.com/desertthunder/spotdown/internal/formatter"
	"github.com/desertthunder/spotdown/internal/runlog"
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/desertthunder/spotdown/internal/transcode"
	"github.com/urfave/cli/v3"
)

// Setup writes the built-in configuration template to the config path.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set client_id and client_secret under [credentials.spotify]\n")
	r.writePlain("2. Run 'spotdown check' to verify spotdl and ffmpeg\n")
	r.writePlain("3. Run 'spotdown auth' to enable playlists and liked songs\n")
	return nil
}

// Check verifies that the download tool and transcoding engine can be run.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	var errs []error

	downloader := acquire.New(r.config.Acquisition, r.config.Paths.BaseDir, r.commands, r.logger)
	if version, err := downloader.CheckTool(ctx); err != nil {
		errs = append(errs, err)
		r.writePlain("✗ %s: %v\n", r.config.Acquisition.Tool, err)
	} else {
		r.writePlain("✓ %s %s\n", r.config.Acquisition.Tool, version)
	}

	engine := transcode.NewEngine(r.config.Transcode, r.commands, r.logger)
	if banner, err := engine.CheckEngine(ctx); err != nil {
		errs = append(errs, err)
		r.writePlain("✗ %s: %v\n", r.config.Transcode.Engine, err)
	} else {
		r.writePlain("✓ %s\n", banner)
		r.writePlain("  Encoder: %s\n", engine.Codec(ctx))
	}

	return errors.Join(errs...)
}

// History prints or exports the run log, oldest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	runLog := runlog.New(r.config.Paths.LogFile)
	lines, err := runLog.Read()
	if err != nil {
		return err
	}

	if len(lines) == 0 {
		return r.writePlain("No downloads recorded yet (%s)\n", runLog.Path())
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(lines) {
		lines = lines[len(lines)-limit:]
	}

	format := cmd.String("format")
	output := cmd.String("output")
	if output == "" && strings.EqualFold(format, "text") {
		for _, line := range lines {
			if err := r.writePlain("%s\n", line); err != nil {
				return err
			}
		}
		return nil
	}

	entries, skipped := formatter.ParseEntries(lines)
	if skipped > 0 {
		r.logger.Warn("skipped unreadable run log lines", "count", skipped, "path", runLog.Path())
	}

	if output != "" {
		if err := formatter.WriteExport(format, entries, output); err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d entries to %s\n", len(entries), output)
	}

	data, err := formatter.Export(format, entries)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
