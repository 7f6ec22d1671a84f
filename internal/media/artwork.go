// Package media fetches collection cover art and prepares it for embedding.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
	"golang.org/x/image/draw"
)

const jpegQuality = 90

// ArtworkService downloads cover images into temporary JPEG files.
type ArtworkService struct {
	cfg        shared.ArtworkConfig
	httpClient *http.Client
	dir        string
	logger     *log.Logger
}

// NewArtworkService creates an [ArtworkService] writing into the system temp directory.
func NewArtworkService(cfg shared.ArtworkConfig, httpClient *http.Client, logger *log.Logger) *ArtworkService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ArtworkService{
		cfg:        cfg,
		httpClient: httpClient,
		dir:        os.TempDir(),
		logger:     shared.WithLogger(logger, "component", "artwork"),
	}
}

// SetDir changes where artwork files are written.
func (s *ArtworkService) SetDir(dir string) {
	s.dir = dir
}

// Fetch downloads url and writes it as album_art_<hex>.jpg.
//
// Returns nil without error when url is empty or artwork is disabled.
func (s *ArtworkService) Fetch(ctx context.Context, url string) (*models.ArtworkAsset, error) {
	if url == "" || !s.cfg.Enabled {
		return nil, nil
	}

	data, err := s.download(ctx, url)
	if err != nil {
		return nil, err
	}

	if s.cfg.MaxSize > 0 {
		data, err = ResizeImage(data, s.cfg.MaxSize, s.cfg.MaxSize)
	} else {
		data, err = ConvertToJPEG(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to process artwork: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("album_art_%s.jpg", shared.GenerateHexID()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write artwork: %w", err)
	}

	s.logger.Debug("artwork saved", "path", path, "bytes", len(data))
	return &models.ArtworkAsset{Path: path}, nil
}

// Cleanup removes the artwork file. A nil asset is ignored.
func (s *ArtworkService) Cleanup(asset *models.ArtworkAsset) error {
	if asset == nil {
		return nil
	}
	if err := os.Remove(asset.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artwork: %w", err)
	}
	return nil
}

func (s *ArtworkService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// ResizeImage scales an image to fit within maxWidth×maxHeight, keeping its aspect ratio, and encodes it as JPEG.
//
// Images already inside the bounds are re-encoded at their original size.
func ResizeImage(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConvertToJPEG re-encodes an image as JPEG so it can be stream-copied into an MP4 container.
func ConvertToJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
