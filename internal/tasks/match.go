package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/spotdown/internal/models"
)

// AudioExtensions are the acquisition outputs considered for matching.
var AudioExtensions = []string{".mp3", ".flac", ".wav", ".ogg"}

func isAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListAcquired returns the audio files directly inside dir, sorted by name.
//
// Normalized outputs and other files are ignored.
func ListAcquired(dir string) ([]models.AcquiredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := []models.AcquiredFile{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isAudio(entry.Name()) {
			continue
		}
		files = append(files, models.AcquiredFile{Path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Match pairs tracks with files, in track order, using a case-insensitive substring test of the title
// against the file stem.
//
// The first unclaimed file that contains the title wins. Each file is claimed at most once and
// tracks without a match are dropped.
func Match(files []models.AcquiredFile, tracks []models.TrackRecord) []models.MatchedPair {
	claimed := make([]bool, len(files))
	pairs := make([]models.MatchedPair, 0, len(tracks))

	for _, track := range tracks {
		title := strings.ToLower(track.Title)
		for i, file := range files {
			if claimed[i] || !strings.Contains(file.Key(), title) {
				continue
			}
			claimed[i] = true
			pairs = append(pairs, models.MatchedPair{File: file, Track: track})
			break
		}
	}
	return pairs
}
