package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
)

const (
	likedArtist     = "Liked Songs"
	likedCollection = "Spotify Liked Songs"
	defaultLiked    = 50
)

var (
	webLink = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-zA-Z-]+/)?(album|playlist|track)/([A-Za-z0-9]+)/?(?:\?.*)?$`)
	uriLink = regexp.MustCompile(`^spotify:(album|playlist|track):([A-Za-z0-9]+)$`)
)

var kinds = map[string]models.ContentKind{
	"album":    models.KindAlbum,
	"playlist": models.KindPlaylist,
	"track":    models.KindTrack,
}

// ParseLink reduces a Spotify web URL, a spotify: URI, or a liked-songs reference to a [models.Link].
func ParseLink(raw string) (models.Link, error) {
	s := strings.TrimSpace(raw)

	if strings.EqualFold(s, "liked") || strings.Contains(strings.ToLower(s), "liked-songs") {
		return models.Link{Kind: models.KindLiked, Raw: s}, nil
	}

	for _, re := range []*regexp.Regexp{webLink, uriLink} {
		if m := re.FindStringSubmatch(s); m != nil {
			return models.Link{Kind: kinds[m[1]], ID: m[2], Raw: s}, nil
		}
	}

	return models.Link{}, fmt.Errorf("%w: %q", shared.ErrUnsupportedURL, raw)
}

// Resolver turns catalog links into [models.CollectionMetadata].
type Resolver struct {
	catalog    Catalog
	likedLimit int
	logger     *log.Logger
}

// NewResolver creates a [Resolver]. A non-positive likedLimit reads 50 liked songs.
func NewResolver(catalog Catalog, likedLimit int, logger *log.Logger) *Resolver {
	if likedLimit <= 0 {
		likedLimit = defaultLiked
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		catalog:    catalog,
		likedLimit: likedLimit,
		logger:     shared.WithLogger(logger, "component", "resolver"),
	}
}

// Resolve parses raw and reads its collection. Collections without tracks fail with [shared.ErrEmptyCollection].
func (r *Resolver) Resolve(ctx context.Context, raw string) (*models.CollectionMetadata, error) {
	link, err := ParseLink(raw)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolving", "kind", link.Kind, "id", link.ID)

	var meta *models.CollectionMetadata
	switch link.Kind {
	case models.KindAlbum:
		album, err := r.catalog.Album(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		meta = ProjectAlbum(album)
	case models.KindTrack:
		track, err := r.catalog.Track(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		meta = ProjectTrack(track)
	case models.KindPlaylist:
		playlist, err := r.catalog.Playlist(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		meta = ProjectPlaylist(playlist)
	case models.KindLiked:
		page, err := r.catalog.SavedTracks(ctx, r.likedLimit, 0)
		if err != nil {
			return nil, err
		}
		meta = ProjectLiked(page)
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedURL, link.Kind)
	}

	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEmptyCollection, err)
	}

	r.logger.Info("resolved", "kind", meta.Kind, "artist", meta.Artist, "title", meta.Title, "tracks", len(meta.Tracks))
	return meta, nil
}

// ProjectAlbum maps an album response. Positions follow the album's listing order.
func ProjectAlbum(album *SpotifyAlbum) *models.CollectionMetadata {
	meta := &models.CollectionMetadata{
		Kind:       models.KindAlbum,
		Artist:     joinArtists(album.Artists),
		Title:      album.Name,
		ArtworkURL: firstImage(album.Images),
	}
	for _, t := range album.Tracks.Items {
		meta.Tracks = append(meta.Tracks, record(len(meta.Tracks)+1, t, album.Name))
	}
	return meta
}

// ProjectTrack maps a single track into a one-track collection named after its album.
func ProjectTrack(track *SpotifyTrack) *models.CollectionMetadata {
	return &models.CollectionMetadata{
		Kind:       models.KindTrack,
		Artist:     joinArtists(track.Artists),
		Title:      track.Album.Name,
		Tracks:     []models.TrackRecord{record(1, *track, track.Album.Name)},
		ArtworkURL: firstImage(track.Album.Images),
	}
}

// ProjectPlaylist maps a playlist, skipping items with no track.
func ProjectPlaylist(playlist *SpotifyPlaylist) *models.CollectionMetadata {
	meta := &models.CollectionMetadata{
		Kind:       models.KindPlaylist,
		Artist:     playlist.Owner.DisplayName,
		Title:      playlist.Name,
		ArtworkURL: firstImage(playlist.Images),
	}
	for _, item := range playlist.Tracks.Items {
		if item.Track == nil {
			continue
		}
		meta.Tracks = append(meta.Tracks, record(len(meta.Tracks)+1, *item.Track, playlist.Name))
	}
	return meta
}

// ProjectLiked maps a page of saved tracks. Each track keeps its own album as its collection.
func ProjectLiked(page *SpotifyPaginatedTracks) *models.CollectionMetadata {
	meta := &models.CollectionMetadata{
		Kind:   models.KindLiked,
		Artist: likedArtist,
		Title:  likedCollection,
	}
	for _, item := range page.Items {
		meta.Tracks = append(meta.Tracks, record(len(meta.Tracks)+1, item.Track, item.Track.Album.Name))
	}
	return meta
}

func record(position int, t SpotifyTrack, collection string) models.TrackRecord {
	return models.TrackRecord{
		Position:   position,
		Title:      t.Name,
		Artists:    joinArtists(t.Artists),
		Collection: collection,
	}
}

func joinArtists(artists []SpotifyArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
