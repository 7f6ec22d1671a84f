package tasks

import (
	"fmt"

	"github.com/desertthunder/spotdown/internal/models"
)

// ProgressUpdate represents a progress event during a collection run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	PhaseResolve Phase = iota
	PhaseAcquire
	PhaseArtwork
	PhaseMatch
	PhaseConvert
	PhaseLog
)

func (p Phase) String() string {
	switch p {
	case PhaseResolve:
		return "resolve"
	case PhaseAcquire:
		return "acquire"
	case PhaseArtwork:
		return "artwork"
	case PhaseMatch:
		return "match"
	case PhaseConvert:
		return "convert"
	case PhaseLog:
		return "log"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolvingUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseResolve,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Resolving %s...", url),
	}
}

func resolvedUpdate(meta *models.CollectionMetadata) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseResolve,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %s: %s - %s (%d tracks)", meta.Kind, meta.Artist, meta.Title, len(meta.Tracks)),
		Data:    meta,
	}
}

func acquiringUpdate(meta *models.CollectionMetadata) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAcquire,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Downloading %s - %s...", meta.Artist, meta.Title),
	}
}

func acquiredUpdate(format string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAcquire,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Downloaded %d files as %s", files, format),
	}
}

func artworkUpdate(asset *models.ArtworkAsset, err error) ProgressUpdate {
	update := ProgressUpdate{Phase: PhaseArtwork, Step: 1, Total: 1}
	switch {
	case err != nil:
		update.Message = fmt.Sprintf("Artwork unavailable: %v", err)
	case asset == nil:
		update.Message = "No artwork"
	default:
		update.Message = "Artwork ready"
		update.Data = asset
	}
	return update
}

func matchedUpdate(pairs, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseMatch,
		Step:    pairs,
		Total:   tracks,
		Message: fmt.Sprintf("Matched %d of %d tracks", pairs, tracks),
	}
}

func convertUpdate(step, total int, track models.TrackRecord, err error) ProgressUpdate {
	mark := "✓"
	if err != nil {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   PhaseConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, track.Title),
		Data:    track,
	}
}

func loggedUpdate(outcome models.RunOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseLog,
		Step:    1,
		Total:   1,
		Message: outcome.String(),
		Data:    outcome,
	}
}
