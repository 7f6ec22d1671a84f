package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
	tu "github.com/desertthunder/spotdown/internal/testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("expected JPEG output, got decode error %v", err)
	}
	return img
}

func TestResizeImage(t *testing.T) {
	tc := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{name: "wide image limited by width", w: 200, h: 100, wantW: 50, wantH: 25},
		{name: "tall image limited by height", w: 100, h: 200, wantW: 25, wantH: 50},
		{name: "small image keeps size", w: 40, h: 30, wantW: 40, wantH: 30},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResizeImage(pngBytes(t, tt.w, tt.h), 50, 50)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			b := decodeJPEG(t, out).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
		})
	}

	t.Run("rejects non-image data", func(t *testing.T) {
		if _, err := ResizeImage([]byte("not an image"), 50, 50); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestConvertToJPEG(t *testing.T) {
	out, err := ConvertToJPEG(pngBytes(t, 20, 10))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b := decodeJPEG(t, out).Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("expected 20x10, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestArtworkService(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	cover := pngBytes(t, 64, 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(cover)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Run("fetch writes a jpeg temp file", func(t *testing.T) {
		svc := NewArtworkService(shared.ArtworkConfig{Enabled: true, MaxSize: 32}, server.Client(), logger)
		svc.SetDir(t.TempDir())

		asset, err := svc.Fetch(ctx, server.URL+"/cover.png")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if asset == nil {
			t.Fatal("expected an asset")
		}

		name := filepath.Base(asset.Path)
		if !strings.HasPrefix(name, "album_art_") || !strings.HasSuffix(name, ".jpg") {
			t.Errorf("unexpected artwork name %s", name)
		}
		if b := decodeJPEG(t, []byte(tu.MustReadFile(t, asset.Path))).Bounds(); b.Dx() != 32 {
			t.Errorf("expected width 32, got %d", b.Dx())
		}

		if err := svc.Cleanup(asset); err != nil {
			t.Fatalf("expected no cleanup error, got %v", err)
		}
		tu.AssertFileMissing(t, asset.Path)
	})

	t.Run("zero max size keeps dimensions", func(t *testing.T) {
		svc := NewArtworkService(shared.ArtworkConfig{Enabled: true}, server.Client(), logger)
		svc.SetDir(t.TempDir())

		asset, err := svc.Fetch(ctx, server.URL+"/cover.png")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b := decodeJPEG(t, []byte(tu.MustReadFile(t, asset.Path))).Bounds(); b.Dx() != 64 {
			t.Errorf("expected width 64, got %d", b.Dx())
		}
	})

	t.Run("empty url or disabled yields no asset", func(t *testing.T) {
		enabled := NewArtworkService(shared.ArtworkConfig{Enabled: true}, server.Client(), logger)
		if asset, err := enabled.Fetch(ctx, ""); asset != nil || err != nil {
			t.Errorf("expected nil asset and error, got %v, %v", asset, err)
		}

		disabled := NewArtworkService(shared.ArtworkConfig{Enabled: false}, server.Client(), logger)
		if asset, err := disabled.Fetch(ctx, server.URL+"/cover.png"); asset != nil || err != nil {
			t.Errorf("expected nil asset and error, got %v, %v", asset, err)
		}
	})

	t.Run("http errors are returned", func(t *testing.T) {
		svc := NewArtworkService(shared.ArtworkConfig{Enabled: true}, server.Client(), logger)
		svc.SetDir(t.TempDir())

		if _, err := svc.Fetch(ctx, server.URL+"/missing.png"); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("cleanup ignores nil and missing files", func(t *testing.T) {
		svc := NewArtworkService(shared.ArtworkConfig{}, nil, logger)
		if err := svc.Cleanup(nil); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if err := svc.Cleanup(&models.ArtworkAsset{Path: filepath.Join(t.TempDir(), "gone.jpg")}); err != nil {
			t.Errorf("expected nil error for missing file, got %v", err)
		}
	})
}
