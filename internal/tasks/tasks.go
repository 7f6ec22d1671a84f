// package tasks implements the collection pipeline: resolve, acquire, match, convert, record.
//
// The core abstraction is Pipeline, which runs one collection URL end to end.
// Runs emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/acquire"
	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
)

// RunResult contains everything a single collection run produced.
type RunResult struct {
	Metadata  *models.CollectionMetadata // Resolved collection
	Dir       string                     // Collection directory
	Format    string                     // Format the acquisition tool succeeded with
	Pairs     []models.MatchedPair       // Files matched to tracks
	Converted int                        // Pairs normalized successfully
	Total     int                        // Tracks in the collection
	Outcome   *models.RunOutcome         // Logged outcome, nil when nothing was logged
}

// Pipeline runs one collection URL through the whole download flow.
type Pipeline interface {
	Run(ctx context.Context, url string, progress chan<- ProgressUpdate) (*RunResult, error)
}

// MetadataResolver resolves a catalog URL into a collection.
type MetadataResolver interface {
	Resolve(ctx context.Context, url string) (*models.CollectionMetadata, error)
}

// Acquirer downloads a collection into its directory.
type Acquirer interface {
	Acquire(ctx context.Context, url, artist, collection string) (*acquire.Result, error)
}

// ArtworkFetcher retrieves cover art into a temporary file and removes it afterwards.
type ArtworkFetcher interface {
	Fetch(ctx context.Context, url string) (*models.ArtworkAsset, error)
	Cleanup(asset *models.ArtworkAsset) error
}

// RunRecorder appends completed runs to the run log.
type RunRecorder interface {
	Append(outcome models.RunOutcome) error
}

// EngineOpts contains the dependencies of an [Engine].
type EngineOpts struct {
	Transcode     shared.TranscodeConfig
	Resolver      MetadataResolver
	Acquirer      Acquirer
	Artwork       ArtworkFetcher         // Optional
	Normalizer    Normalizer             // Shared by every run unless NewNormalizer is set
	NewNormalizer func() Normalizer      // Builds a fresh Normalizer at the start of each run
	RunLog        RunRecorder
	Logger        *log.Logger
	Clock         func() time.Time       // Defaults to time.Now
}

// Engine implements [Pipeline].
type Engine struct {
	cfg       shared.TranscodeConfig
	resolver  MetadataResolver
	acquirer  Acquirer
	artwork   ArtworkFetcher
	normalize func() Normalizer
	runLog    RunRecorder
	logger    *log.Logger
	now       func() time.Time
}

// NewEngine creates an [Engine] from opts.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "pipeline")

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	normalize := opts.NewNormalizer
	if normalize == nil {
		normalize = func() Normalizer { return opts.Normalizer }
	}

	return &Engine{
		cfg:       opts.Transcode,
		resolver:  opts.Resolver,
		acquirer:  opts.Acquirer,
		artwork:   opts.Artwork,
		normalize: normalize,
		runLog:    opts.RunLog,
		logger:    logger,
		now:       now,
	}
}

// Run resolves url, acquires it, matches the files, converts them, and records the run.
//
// Resolution and acquisition failures abort the run. A run that converts nothing fails with
// [shared.ErrNothingConverted]. Only runs that converted at least one track are logged.
func (e *Engine) Run(ctx context.Context, url string, progress chan<- ProgressUpdate) (*RunResult, error) {
	sendProgress(progress, resolvingUpdate(url))

	meta, err := e.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrResolution, err)
	}
	sendProgress(progress, resolvedUpdate(meta))

	result := &RunResult{Metadata: meta, Total: len(meta.Tracks)}

	sendProgress(progress, acquiringUpdate(meta))
	acquired, err := e.acquirer.Acquire(ctx, url, meta.Artist, meta.Title)
	if err != nil {
		return result, err
	}
	result.Dir = acquired.Dir
	result.Format = acquired.Format

	files, err := ListAcquired(acquired.Dir)
	if err != nil {
		return result, err
	}
	sendProgress(progress, acquiredUpdate(acquired.Format, len(files)))

	artwork := e.fetchArtwork(ctx, meta.ArtworkURL, progress)
	defer e.cleanupArtwork(artwork)

	result.Pairs = Match(files, meta.Tracks)
	sendProgress(progress, matchedUpdate(len(result.Pairs), len(meta.Tracks)))
	e.logger.Info("matched", "pairs", len(result.Pairs), "files", len(files), "tracks", len(meta.Tracks))

	processor := NewProcessor(e.normalize(), e.logger)
	result.Converted = processor.Process(ctx, result.Pairs, artwork, meta.PadWidth(), e.cfg.Workers, progress)
	if result.Converted == 0 {
		return result, fmt.Errorf("%w: %s - %s", shared.ErrNothingConverted, meta.Artist, meta.Title)
	}

	outcome := models.RunOutcome{
		Time:        e.now(),
		Status:      models.StatusSuccess,
		Artist:      meta.Artist,
		Collection:  meta.Title,
		Count:       result.Converted,
		FormatLabel: FormatLabel(e.cfg.FormatLabel, acquired.Format),
	}
	if err := e.runLog.Append(outcome); err != nil {
		e.logger.Warn("failed to record run", "error", err)
	} else {
		result.Outcome = &outcome
		sendProgress(progress, loggedUpdate(outcome))
	}

	return result, nil
}

func (e *Engine) fetchArtwork(ctx context.Context, url string, progress chan<- ProgressUpdate) *models.ArtworkAsset {
	if e.artwork == nil {
		return nil
	}

	asset, err := e.artwork.Fetch(ctx, url)
	if err != nil {
		e.logger.Warn("continuing without artwork", "url", url, "error", err)
		asset = nil
	}
	sendProgress(progress, artworkUpdate(asset, err))
	return asset
}

func (e *Engine) cleanupArtwork(asset *models.ArtworkAsset) {
	if e.artwork == nil || asset == nil {
		return
	}
	if err := e.artwork.Cleanup(asset); err != nil {
		e.logger.Warn("failed to remove artwork", "path", asset.Path, "error", err)
	}
}

// FormatLabel renders the run log format column, e.g. "AAC M4A (from flac)".
func FormatLabel(label, source string) string {
	return fmt.Sprintf("%s (from %s)", label, source)
}
