// Package transcode wraps the external transcoding engine (ffmpeg) that normalizes acquired audio into tagged AAC
// files with embedded cover art.
package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/command"
	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
)

// Engine runs ffmpeg for a single pipeline run.
//
// The encoder probe runs at most once per Engine. The pipeline builds a new Engine for every run.
type Engine struct {
	cfg    shared.TranscodeConfig
	runner command.Runner
	logger *log.Logger

	probe sync.Once
	codec string
}

// NewEngine creates an [Engine] that invokes cfg.Engine through runner.
func NewEngine(cfg shared.TranscodeConfig, runner command.Runner, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		cfg:    cfg,
		runner: runner,
		logger: shared.WithLogger(logger, "component", "transcode"),
	}
}

// Codec returns the AAC encoder to use, preferring the hardware encoder when the engine lists it.
//
// A failed probe falls back to the software encoder.
func (e *Engine) Codec(ctx context.Context) string {
	e.probe.Do(func() {
		e.codec = e.cfg.SoftwareCodec

		res, err := e.runner.Run(ctx, e.cfg.Engine, "-hide_banner", "-encoders")
		if err != nil || res.Failed() {
			e.logger.Warn("encoder probe failed, using software encoder", "codec", e.codec, "error", err)
			return
		}
		if e.cfg.HardwareCodec != "" && hasEncoder(res.Stdout, e.cfg.HardwareCodec) {
			e.codec = e.cfg.HardwareCodec
		}
		e.logger.Debug("selected encoder", "codec", e.codec)
	})
	return e.codec
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like " A....D aac_at  AAC (AudioToolbox)".
func hasEncoder(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// OutputName returns "<zero-padded position> - <sanitized title>.<ext>".
func (e *Engine) OutputName(track models.TrackRecord, width int) string {
	return fmt.Sprintf("%0*d - %s.%s", width, track.Position, shared.SanitizeFileName(track.Title), e.cfg.Extension)
}

// Args builds the engine arguments. With artwork, the audio stream is mapped alongside the image as an attached
// picture; without it only the audio stream is mapped.
func (e *Engine) Args(input, output string, artwork *models.ArtworkAsset, track models.TrackRecord, codec string) []string {
	args := []string{"-y", "-i", input}
	if artwork != nil {
		args = append(args,
			"-i", artwork.Path,
			"-map", "0:a", "-map", "1:v",
			"-c:v", "copy", "-disposition:v:0", "attached_pic",
		)
	} else {
		args = append(args, "-map", "0:a")
	}

	args = append(args,
		"-c:a", codec,
		"-b:a", e.cfg.Bitrate,
		"-movflags", "+faststart",
		"-metadata", "artist="+track.Artists,
		"-metadata", "album="+track.Collection,
		"-metadata", "title="+track.Title,
		"-metadata", "track="+strconv.Itoa(track.Position),
		output,
	)
	return args
}

// Normalize transcodes pair into the collection directory and deletes the source on success.
//
// On failure the source is left untouched and the error wraps [shared.ErrTranscodeFailed].
func (e *Engine) Normalize(ctx context.Context, pair models.MatchedPair, artwork *models.ArtworkAsset, width int) (string, error) {
	input := pair.File.Path
	output := filepath.Join(filepath.Dir(input), e.OutputName(pair.Track, width))
	args := e.Args(input, output, artwork, pair.Track, e.Codec(ctx))

	e.logger.Debug(command.String(e.cfg.Engine, args...))

	res, err := e.runner.Run(ctx, e.cfg.Engine, args...)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", shared.ErrTranscodeFailed, filepath.Base(input), err)
	}
	if res.Failed() {
		return "", fmt.Errorf("%w for %s: exit %d\n%s", shared.ErrTranscodeFailed, filepath.Base(input), res.ExitCode,
			shared.Tail(res.Stderr, 5))
	}

	if err := os.Remove(input); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("failed to remove source file", "path", input, "error", err)
	}
	return output, nil
}

// CheckEngine verifies the engine can be run and returns the first line of its version banner.
func (e *Engine) CheckEngine(ctx context.Context) (string, error) {
	res, err := e.runner.Run(ctx, e.cfg.Engine, "-version")
	if err != nil {
		return "", fmt.Errorf("%s is not installed or not on PATH: %w", e.cfg.Engine, err)
	}
	if res.Failed() {
		return "", fmt.Errorf("%w: %s -version exited with %d", shared.ErrServiceUnavailable, e.cfg.Engine, res.ExitCode)
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	return strings.TrimSpace(line), nil
}
