// Package runlog appends completed collection runs to a human-readable text file and reads them back.
package runlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/spotdown/internal/models"
)

// Log is an append-only run log. Entries are never rewritten.
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a [Log] backed by the file at path. The file is created on first append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Append writes outcome as a single line.
func (l *Log) Append(outcome models.RunOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, outcome.String()); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}

// Read returns every line of the log in file order. A log that does not exist yet reads as empty.
func (l *Log) Read() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	lines := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	return lines, nil
}
