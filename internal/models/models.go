package models

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ContentKind is the closed set of collection shapes a link can point at.
type ContentKind int

const (
	KindTrack ContentKind = iota
	KindAlbum
	KindPlaylist
	KindLiked
)

func (k ContentKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindAlbum:
		return "album"
	case KindPlaylist:
		return "playlist"
	case KindLiked:
		return "liked"
	default:
		return "unknown"
	}
}

// Private reports whether reading this kind requires a user-delegated token.
func (k ContentKind) Private() bool {
	return k == KindPlaylist || k == KindLiked
}

// Link is a catalog URL reduced to its kind and identifier.
//
// ID is empty for [KindLiked].
type Link struct {
	Kind ContentKind
	ID   string
	Raw  string
}

// TrackRecord is one track of a resolved collection.
//
// Position is the 1-based rank among the tracks that were included.
type TrackRecord struct {
	Position   int
	Title      string
	Artists    string
	Collection string
}

// CollectionMetadata is a resolved collection with its tracks in canonical order.
type CollectionMetadata struct {
	Kind       ContentKind
	Artist     string
	Title      string
	Tracks     []TrackRecord
	ArtworkURL string
}

// Validate returns an error when the collection has no tracks.
func (c *CollectionMetadata) Validate() error {
	if len(c.Tracks) == 0 {
		return fmt.Errorf("%s %q has no tracks", c.Kind, c.Title)
	}
	return nil
}

// PadWidth returns the zero-padding width for track numbers in output file names.
func (c *CollectionMetadata) PadWidth() int {
	return PadWidth(len(c.Tracks))
}

// PadWidth returns the number of decimal digits in n.
func PadWidth(n int) int {
	if n < 1 {
		return 1
	}
	return len(strconv.Itoa(n))
}

// AcquiredFile is an audio file found in a collection directory after acquisition.
type AcquiredFile struct {
	Path string
}

// Stem returns the file name without its directory or extension.
func (f AcquiredFile) Stem() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Key returns the lower-cased stem used for title comparison.
func (f AcquiredFile) Key() string {
	return strings.ToLower(f.Stem())
}

// MatchedPair binds an acquired file to the track it represents.
type MatchedPair struct {
	File  AcquiredFile
	Track TrackRecord
}

// ArtworkAsset is a temporary cover image on disk, shared read-only for the duration of a run.
type ArtworkAsset struct {
	Path string
}

// StatusSuccess is the only status written to the run log.
const StatusSuccess = "SUCCESS"

// RunOutcome describes one completed collection run.
type RunOutcome struct {
	Time        time.Time `json:"time"`
	Status      string    `json:"status"`
	Artist      string    `json:"artist"`
	Collection  string    `json:"collection"`
	Count       int       `json:"count"`
	FormatLabel string    `json:"format"`
}

// TimeLayout is the timestamp layout used in run log lines.
const TimeLayout = "2006-01-02 15:04:05"

// String renders the outcome as a run log line without the trailing newline.
func (o RunOutcome) String() string {
	return fmt.Sprintf("[%s] %s | %s - %s | %d songs | %s",
		o.Time.Format(TimeLayout), o.Status, o.Artist, o.Collection, o.Count, o.FormatLabel)
}

// ParseRunOutcome reads a line written by [RunOutcome.String]. Times are read in the local zone.
//
// The line format cannot tell which " - " separates artist from collection, so the first one is used.
// An artist name containing " - " therefore reads back with the remainder moved into Collection.
func ParseRunOutcome(line string) (RunOutcome, error) {
	var o RunOutcome

	stamp, rest, ok := strings.Cut(strings.TrimPrefix(line, "["), "] ")
	if !ok || !strings.HasPrefix(line, "[") {
		return o, fmt.Errorf("malformed run log line %q", line)
	}

	t, err := time.ParseInLocation(TimeLayout, stamp, time.Local)
	if err != nil {
		return o, fmt.Errorf("malformed run log time %q: %w", stamp, err)
	}

	// Titles may themselves contain the separator, so status, count and label are taken from the ends.
	fields := strings.Split(rest, " | ")
	if len(fields) < 4 {
		return o, fmt.Errorf("malformed run log line %q", line)
	}
	n := len(fields)

	count, err := strconv.Atoi(strings.TrimSuffix(fields[n-2], " songs"))
	if err != nil {
		return o, fmt.Errorf("malformed run log count %q: %w", fields[n-2], err)
	}

	o.Time = t
	o.Status = fields[0]
	o.Artist, o.Collection, _ = strings.Cut(strings.Join(fields[1:n-2], " | "), " - ")
	o.Count = count
	o.FormatLabel = fields[n-1]
	return o, nil
}
