package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/acquire"
	"github.com/desertthunder/spotdown/internal/command"
	"github.com/desertthunder/spotdown/internal/media"
	"github.com/desertthunder/spotdown/internal/runlog"
	"github.com/desertthunder/spotdown/internal/services"
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/desertthunder/spotdown/internal/tasks"
	"github.com/desertthunder/spotdown/internal/transcode"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	mu         sync.Mutex
	config     *shared.Config
	configPath string
	httpClient *http.Client
	commands   command.Runner
	pipeline   tasks.Pipeline
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Commands   command.Runner // Defaults to [command.ExecRunner]
	Pipeline   tasks.Pipeline // Replaces the pipeline built from Config
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Commands == nil {
		opts.Commands = command.NewExecRunner()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		commands:   opts.Commands,
		pipeline:   opts.Pipeline,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		downloadCommand, tuiCommand, historyCommand, authCommand, checkCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags: log level and configuration.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if err := r.loadConfig(cmd.String("config")); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// loadConfig reads the config at path, falling back to defaults when the file does not exist.
func (r *Runner) loadConfig(path string) error {
	r.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config = shared.DefaultConfig()
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	r.config = config
	r.logger.Debug("config loaded", "path", path)
	return nil
}

// saveTokens stores token in the config and persists it when a config path is known.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("tokens saved", "path", r.configPath)
	return nil
}

// newSpotify builds the catalog client for cfg, authenticated with the stored user token if there is one.
//
// Refreshed tokens are written back to the config file.
func (r *Runner) newSpotify(ctx context.Context, cfg *shared.Config) (*services.SpotifyService, error) {
	spotify, err := services.NewSpotifyService(cfg.Credentials.Spotify, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	spotify.SetHTTPClient(r.httpClient)
	spotify.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})

	if token := cfg.Credentials.Spotify.Token(); token != nil {
		if err := spotify.OAuthenticate(ctx, token); err != nil {
			return nil, err
		}
	}
	return spotify, nil
}

// buildPipeline wires the resolver, downloader, artwork service, transcoder, and run log for cfg.
func (r *Runner) buildPipeline(ctx context.Context, cfg *shared.Config) (tasks.Pipeline, error) {
	if r.pipeline != nil {
		return r.pipeline, nil
	}

	spotify, err := r.newSpotify(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := tasks.EngineOpts{
		Transcode: cfg.Transcode,
		Resolver:  services.NewResolver(spotify, cfg.Catalog.LikedLimit, r.logger),
		Acquirer:  acquire.New(cfg.Acquisition, cfg.Paths.BaseDir, r.commands, r.logger),
		NewNormalizer: func() tasks.Normalizer {
			return transcode.NewEngine(cfg.Transcode, r.commands, r.logger)
		},
		RunLog: runlog.New(cfg.Paths.LogFile),
		Logger: r.logger,
	}
	if cfg.Artwork.Enabled {
		opts.Artwork = media.NewArtworkService(cfg.Artwork, r.httpClient, r.logger)
	}

	return tasks.NewEngine(opts), nil
}

// SetLogger replaces the runner's logger, e.g. to keep log output out of the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
