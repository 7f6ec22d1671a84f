package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
	th "github.com/desertthunder/spotdown/internal/testing"
)

func entries() []models.RunOutcome {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local)
	return []models.RunOutcome{
		{Time: at, Status: models.StatusSuccess, Artist: "Artist One", Collection: "Album One", Count: 10, FormatLabel: "AAC M4A (from flac)"},
		{Time: at.Add(time.Hour), Status: models.StatusSuccess, Artist: "Liked Songs", Collection: "Spotify Liked Songs", Count: 50, FormatLabel: "AAC M4A (from mp3)"},
	}
}

func TestParseEntries(t *testing.T) {
	lines := []string{
		entries()[0].String(),
		"garbage",
		entries()[1].String(),
	}

	parsed, skipped := ParseEntries(lines)
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
	if parsed[1].Count != 50 {
		t.Errorf("expected 50 songs, got %d", parsed[1].Count)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(entries())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Time,Status,Artist,Collection,Songs,Format\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "2026-02-03 04:05:06,SUCCESS,Artist One,Album One,10,AAC M4A (from flac)") {
			t.Errorf("CSV missing first entry, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(entries())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Download history") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Collections**: 2") {
			t.Errorf("Markdown missing collection count")
		}
		if !strings.Contains(output, "**Songs**: 60") {
			t.Errorf("Markdown missing song total")
		}
		if !strings.Contains(output, "| 2026-02-03 04:05:06 | Artist One | Album One | 10 | AAC M4A (from flac) |") {
			t.Errorf("Markdown missing row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown escapes pipes", func(t *testing.T) {
		e := entries()[:1]
		e[0].Collection = "Live | Acoustic"

		data, _ := ExportToMarkdown(e)
		if !strings.Contains(string(data), `Live \| Acoustic`) {
			t.Errorf("expected escaped pipe, got: %s", data)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(entries(), false)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(decoded))
		}
		if decoded[0]["collection"] != "Album One" {
			t.Errorf("expected collection key, got %v", decoded[0])
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(entries())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.HasPrefix(string(data), entries()[0].String()+"\n") {
			t.Errorf("expected run log lines, got: %s", data)
		}
	})

	t.Run("Export", func(t *testing.T) {
		for _, format := range append(Formats, "md", "TXT", "") {
			if _, err := Export(format, entries()); err != nil {
				t.Errorf("expected %q to be accepted, got %v", format, err)
			}
		}

		_, err := Export("xml", entries())
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "history.csv")

		if err := WriteExport("csv", entries(), path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Artist One") {
			t.Errorf("expected entry in file, got: %s", content)
		}
	})

	t.Run("unknown format writes nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.xml")

		if err := WriteExport("xml", entries(), path); err == nil {
			t.Fatal("expected error for unknown format")
		}
		th.AssertFileMissing(t, path)
	})
}
