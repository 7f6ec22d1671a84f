package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
)

type mockNormalizer struct {
	delay   time.Duration
	failing map[string]bool

	mu       sync.Mutex
	seen     []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockNormalizer) Normalize(ctx context.Context, pair models.MatchedPair, artwork *models.ArtworkAsset, width int) (string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.peak.Load()
		if n <= peak || m.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	m.mu.Lock()
	m.seen = append(m.seen, pair.Track.Title)
	m.mu.Unlock()

	time.Sleep(m.delay)
	if m.failing[pair.Track.Title] {
		return "", fmt.Errorf("%w: %s", shared.ErrTranscodeFailed, pair.Track.Title)
	}
	return strings.ToLower(pair.Track.Title) + ".m4a", nil
}

func pairsFor(titles ...string) []models.MatchedPair {
	out := make([]models.MatchedPair, len(titles))
	for i, track := range tracks(titles...) {
		out[i] = models.MatchedPair{File: models.AcquiredFile{Path: "/d/" + track.Title + ".flac"}, Track: track}
	}
	return out
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("counts successes", func(t *testing.T) {
		norm := &mockNormalizer{}
		got := NewProcessor(norm, logger).Process(ctx, pairsFor("A", "B", "C"), nil, 1, 2, nil)

		if got != 3 {
			t.Errorf("expected 3 converted, got %d", got)
		}
	})

	t.Run("failures do not stop siblings", func(t *testing.T) {
		norm := &mockNormalizer{failing: map[string]bool{"A": true, "C": true}}
		pairs := pairsFor("A", "B", "C", "D")

		got := NewProcessor(norm, logger).Process(ctx, pairs, nil, 1, 1, nil)
		if got != 2 {
			t.Errorf("expected 2 converted, got %d", got)
		}
		if len(norm.seen) != len(pairs) {
			t.Errorf("expected every pair to be attempted, got %v", norm.seen)
		}
	})

	t.Run("respects concurrency bound", func(t *testing.T) {
		norm := &mockNormalizer{delay: 20 * time.Millisecond}
		got := NewProcessor(norm, logger).Process(ctx, pairsFor("A", "B", "C", "D", "E", "F", "G", "H"), nil, 1, 3, nil)

		if got != 8 {
			t.Errorf("expected 8 converted, got %d", got)
		}
		if peak := norm.peak.Load(); peak > 3 {
			t.Errorf("expected at most 3 concurrent jobs, got %d", peak)
		}
		if peak := norm.peak.Load(); peak < 2 {
			t.Errorf("expected jobs to overlap, got peak %d", peak)
		}
	})

	t.Run("emits one update per pair", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		norm := &mockNormalizer{failing: map[string]bool{"B": true}}

		NewProcessor(norm, logger).Process(ctx, pairsFor("A", "B"), nil, 1, 2, progress)
		close(progress)

		var steps []int
		failed := 0
		for u := range progress {
			if u.Phase != PhaseConvert || u.Total != 2 {
				t.Errorf("unexpected update %+v", u)
			}
			if strings.Contains(u.Message, "✗") {
				failed++
			}
			steps = append(steps, u.Step)
		}
		if len(steps) != 2 || failed != 1 {
			t.Errorf("expected 2 updates with 1 failure, got %v (%d failed)", steps, failed)
		}
	})

	t.Run("full channel never blocks", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		done := make(chan int)

		go func() {
			done <- NewProcessor(&mockNormalizer{}, logger).Process(ctx, pairsFor("A", "B"), nil, 1, 2, progress)
		}()

		select {
		case got := <-done:
			if got != 2 {
				t.Errorf("expected 2 converted, got %d", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("process blocked on progress channel")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := NewProcessor(&mockNormalizer{}, logger).Process(ctx, nil, nil, 1, 0, nil); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}
