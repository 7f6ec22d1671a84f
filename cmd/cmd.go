// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/urfave/cli/v3"
)

// app returns the root command with global flags and all subcommands.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spotdown",
		Usage:   "Download Spotify albums, playlists, and tracks as tagged audio files",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   shared.DefaultConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

// downloadCommand runs the pipeline over one or more links.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download and convert Spotify collections",
		ArgsUsage: "<url> [url...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent conversions (overrides transcode.workers)",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Download attempts per format after the first (overrides acquisition.retries)",
			},
			&cli.StringFlag{
				Name:    "base-dir",
				Aliases: []string{"o"},
				Usage:   "Root of the download tree (overrides paths.base_dir)",
			},
		},
		Action: r.Download,
	}
}

// tuiCommand returns the top-level TUI command for interactive downloads.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive downloader",
		Action:  r.TUI,
	}
}

// historyCommand prints the run log.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show completed downloads",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Show only the most recent entries (0 shows all)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown, or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
		},
		Action: r.History,
	}
}

// authCommand handles Spotify authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize access to your playlists and liked songs",
		Action: r.SpotifyAuth,
	}
}

// checkCommand verifies the external tools.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Verify that the download tool and transcoding engine are installed",
		Action: r.Check,
	}
}

// setupCommand writes a starter configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a configuration file from the built-in template",
		Action: r.Setup,
	}
}
