package tasks

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/models"
	"golang.org/x/sync/errgroup"
)

// Normalizer converts one matched file into its final form and returns the output path.
type Normalizer interface {
	Normalize(ctx context.Context, pair models.MatchedPair, artwork *models.ArtworkAsset, width int) (string, error)
}

// Processor normalizes matched pairs on a bounded pool of goroutines.
type Processor struct {
	normalizer Normalizer
	logger     *log.Logger
}

// NewProcessor creates a [Processor].
func NewProcessor(normalizer Normalizer, logger *log.Logger) *Processor {
	return &Processor{normalizer: normalizer, logger: logger}
}

// Process normalizes pairs with at most concurrency jobs in flight and returns how many succeeded.
//
// Failures are logged and counted out; they never cancel the remaining jobs.
func (p *Processor) Process(
	ctx context.Context,
	pairs []models.MatchedPair,
	artwork *models.ArtworkAsset,
	width, concurrency int,
	progress chan<- ProgressUpdate,
) int {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		g         errgroup.Group
		converted atomic.Int32
		done      atomic.Int32
	)
	g.SetLimit(concurrency)

	total := len(pairs)
	for _, pair := range pairs {
		g.Go(func() error {
			out, err := p.normalizer.Normalize(ctx, pair, artwork, width)
			if err != nil {
				p.logger.Warn("conversion failed", "file", pair.File.Path, "track", pair.Track.Title, "error", err)
			} else {
				converted.Add(1)
				p.logger.Debug("converted", "output", out)
			}
			sendProgress(progress, convertUpdate(int(done.Add(1)), total, pair.Track, err))
			return nil
		})
	}

	_ = g.Wait()
	return int(converted.Load())
}
