package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/spotdown/internal/shared"
)

// TestHelperProcess is not a real test. It is re-executed by helperRunner to act as an external program.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SPOTDOWN_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "echo":
		fmt.Fprint(os.Stdout, strings.Join(args[2:], " "))
	case "fail":
		code, _ := strconv.Atoi(args[2])
		fmt.Fprint(os.Stderr, "something went wrong")
		os.Exit(code)
	case "flood":
		fmt.Fprint(os.Stdout, strings.Repeat("x", 4096))
	}
	os.Exit(0)
}

func helperRunner(max int) (*ExecRunner, string, []string) {
	r := &ExecRunner{MaxCapture: max, Env: []string{"SPOTDOWN_HELPER_PROCESS=1"}}
	return r, os.Args[0], []string{"-test.run=TestHelperProcess", "--"}
}

func TestExecRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("captures stdout on success", func(t *testing.T) {
		r, name, base := helperRunner(DefaultCaptureBytes)
		res, err := r.Run(ctx, name, append(base, "echo", "hello", "world")...)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Failed() {
			t.Errorf("expected success, got exit code %d", res.ExitCode)
		}
		if res.Stdout != "hello world" {
			t.Errorf("expected stdout 'hello world', got %q", res.Stdout)
		}
		if res.Truncated {
			t.Error("expected short output not to be truncated")
		}
	})

	t.Run("reports exit code and stderr", func(t *testing.T) {
		r, name, base := helperRunner(DefaultCaptureBytes)
		res, err := r.Run(ctx, name, append(base, "fail", "3")...)
		if err != nil {
			t.Fatalf("expected nil error for non-zero exit, got %v", err)
		}
		if res.ExitCode != 3 {
			t.Errorf("expected exit code 3, got %d", res.ExitCode)
		}
		if !strings.Contains(res.Stderr, "something went wrong") {
			t.Errorf("expected stderr to be captured, got %q", res.Stderr)
		}
	})

	t.Run("limits captured output", func(t *testing.T) {
		r, name, base := helperRunner(100)
		res, err := r.Run(ctx, name, append(base, "flood")...)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Stdout) != 100 {
			t.Errorf("expected 100 captured bytes, got %d", len(res.Stdout))
		}
		if !res.Truncated {
			t.Error("expected result to be marked truncated")
		}
	})

	t.Run("missing program", func(t *testing.T) {
		r := NewExecRunner()
		res, err := r.Run(ctx, "spotdown-definitely-not-installed")
		if !errors.Is(err, shared.ErrCommandStart) {
			t.Errorf("expected ErrCommandStart, got %v", err)
		}
		if !res.Failed() {
			t.Error("expected result to be marked failed")
		}
	})
}

func TestString(t *testing.T) {
	got := String("ffmpeg", "-i", "Artist - Song.flac", "-y")
	want := `ffmpeg -i "Artist - Song.flac" -y`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
