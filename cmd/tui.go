package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotdown/internal/runlog"
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/desertthunder/spotdown/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for downloads.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(shared.DefaultStatePath("tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	cfg := r.runConfig(cmd)
	pipeline, err := r.buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, pipeline, runlog.New(cfg.Paths.LogFile))
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
