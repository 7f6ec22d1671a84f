// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotdown/internal/command"
)

// Invocation is one recorded call to [FakeRunner.Run].
type Invocation struct {
	Name string
	Args []string
}

// Flag returns the argument following flag, or "" when flag is absent.
func (i Invocation) Flag(flag string) string {
	for n := 0; n < len(i.Args)-1; n++ {
		if i.Args[n] == flag {
			return i.Args[n+1]
		}
	}
	return ""
}

// Has reports whether arg appears anywhere in the argument list.
func (i Invocation) Has(arg string) bool {
	for _, a := range i.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// Last returns the final argument.
func (i Invocation) Last() string {
	if len(i.Args) == 0 {
		return ""
	}
	return i.Args[len(i.Args)-1]
}

// FakeRunner is a test double for [command.Runner] that records invocations without starting processes.
//
// Handler scripts the response to each call; a nil Handler succeeds with empty output.
type FakeRunner struct {
	Handler func(call Invocation) (command.Result, error)
	Delay   time.Duration // Simulated process duration

	mu       sync.Mutex
	calls    []Invocation
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	call := Invocation{Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.Delay > 0 {
		select {
		case <-ctx.Done():
			return command.Result{ExitCode: -1}, ctx.Err()
		case <-time.After(f.Delay):
		}
	}

	if f.Handler == nil {
		return command.Result{}, nil
	}
	return f.Handler(call)
}

// Calls returns a copy of the recorded invocations in call order.
func (f *FakeRunner) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation(nil), f.calls...)
}

// PeakConcurrency returns the highest number of simultaneous Run calls observed.
func (f *FakeRunner) PeakConcurrency() int {
	return int(f.peak.Load())
}

// Exit returns a handler result with the given exit code and stderr.
func Exit(code int, stderr string) (command.Result, error) {
	return command.Result{ExitCode: code, Stderr: stderr}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// WriteFiles creates empty files named names inside dir and returns their paths.
func WriteFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("audio:"+name), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
