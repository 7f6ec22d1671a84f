// package formatter provides functions to export download history to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
)

// Formats lists the accepted export format names.
var Formats = []string{"text", "csv", "markdown", "json"}

// ParseEntries parses run log lines, returning the entries that could be read and the number skipped.
func ParseEntries(lines []string) ([]models.RunOutcome, int) {
	entries := make([]models.RunOutcome, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		outcome, err := models.ParseRunOutcome(line)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, outcome)
	}
	return entries, skipped
}

// ExportToCSV converts entries to CSV format with columns: Time, Status, Artist, Collection, Songs, Format
func ExportToCSV(entries []models.RunOutcome) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Time", "Status", "Artist", "Collection", "Songs", "Format"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.Time.Format(models.TimeLayout),
			e.Status,
			e.Artist,
			e.Collection,
			strconv.Itoa(e.Count),
			e.FormatLabel,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts entries to a Markdown table with a short summary
func ExportToMarkdown(entries []models.RunOutcome) ([]byte, error) {
	var buf bytes.Buffer

	songs := 0
	for _, e := range entries {
		songs += e.Count
	}

	buf.WriteString("# Download history\n\n")
	buf.WriteString(fmt.Sprintf("**Collections**: %d\n", len(entries)))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", songs))

	buf.WriteString("| Date | Artist | Collection | Songs | Format |\n")
	buf.WriteString("|---|---|---|---:|---|\n")
	for _, e := range entries {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
			e.Time.Format(models.TimeLayout), cell(e.Artist), cell(e.Collection), e.Count, cell(e.FormatLabel)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts entries to a JSON array
func ExportToJSON(entries []models.RunOutcome, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToText renders entries as run log lines
func ExportToText(entries []models.RunOutcome) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Export renders entries in the named format.
func Export(format string, entries []models.RunOutcome) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return ExportToText(entries)
	case "csv":
		return ExportToCSV(entries)
	case "markdown", "md":
		return ExportToMarkdown(entries)
	case "json":
		return ExportToJSON(entries, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders entries in the named format and writes them to path, creating parent directories.
func WriteExport(format string, entries []models.RunOutcome, path string) error {
	data, err := Export(format, entries)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
