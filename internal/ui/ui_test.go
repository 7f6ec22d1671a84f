package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotdown/internal/models"
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/desertthunder/spotdown/internal/tasks"
)

type fakePipeline struct {
	updates []tasks.ProgressUpdate
	result  *tasks.RunResult
	err     error
	urls    chan string
}

func (f *fakePipeline) Run(ctx context.Context, url string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	if f.urls != nil {
		f.urls <- url
	}
	for _, u := range f.updates {
		progress <- u
	}
	return f.result, f.err
}

type fakeHistory struct {
	lines []string
	err   error
}

func (f fakeHistory) Read() ([]string, error) { return f.lines, f.err }

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func enter(m *Model) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

// drain follows a run's wait commands until the completion message arrives.
func drain(t *testing.T, m *Model) {
	t.Helper()
	cmd := waitForProgress(m.progressCh, m.doneCh)
	for range 100 {
		msg := cmd()
		_, next := m.Update(msg)
		if ui, ok := msg.(Msg); ok && ui.kind == MsgRunComplete {
			return
		}
		cmd = next
	}
	t.Fatal("run did not complete")
}

func sampleResult() *tasks.RunResult {
	return &tasks.RunResult{
		Metadata:  &models.CollectionMetadata{Artist: "Radiohead", Title: "OK Computer"},
		Dir:       "/music/Radiohead - OK Computer",
		Format:    "MP3",
		Converted: 12,
		Total:     12,
	}
}

func TestModel(t *testing.T) {
	t.Run("starts in input view", func(t *testing.T) {
		m := NewModel(context.Background(), &fakePipeline{}, fakeHistory{})
		if m.State() != InputView {
			t.Errorf("expected InputView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "spotdown") {
			t.Error("expected title in input view")
		}
	})

	t.Run("exit commands quit", func(t *testing.T) {
		for _, word := range []string{"exit", "quit", "q", "EXIT"} {
			m := NewModel(context.Background(), &fakePipeline{}, fakeHistory{})
			typeText(m, word)
			cmd := enter(m)
			if cmd == nil {
				t.Fatalf("expected quit command for %q", word)
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("expected QuitMsg for %q", word)
			}
		}
	})

	t.Run("blank input is ignored", func(t *testing.T) {
		m := NewModel(context.Background(), &fakePipeline{}, fakeHistory{})
		typeText(m, "   ")
		if cmd := enter(m); cmd != nil {
			t.Error("expected no command for blank input")
		}
		if m.State() != InputView {
			t.Errorf("expected InputView, got %v", m.State())
		}
	})

	t.Run("run streams progress and shows result", func(t *testing.T) {
		pipeline := &fakePipeline{
			updates: []tasks.ProgressUpdate{
				{Phase: tasks.PhaseResolve, Message: "Resolving link"},
				{Phase: tasks.PhaseConvert, Step: 1, Total: 12, Message: "✓ Airbag"},
			},
			result: sampleResult(),
			urls:   make(chan string, 1),
		}
		m := NewModel(context.Background(), pipeline, fakeHistory{})
		url := "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE"
		typeText(m, url)
		if cmd := enter(m); cmd == nil {
			t.Fatal("expected run command")
		}
		if m.State() != RunningView {
			t.Fatalf("expected RunningView, got %v", m.State())
		}

		drain(t, m)

		if got := <-pipeline.urls; got != url {
			t.Errorf("expected url %q, got %q", url, got)
		}
		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.State())
		}
		if len(m.lines) != 2 {
			t.Errorf("expected 2 progress lines, got %d", len(m.lines))
		}
		view := m.View()
		if !strings.Contains(view, "12/12") {
			t.Errorf("expected converted count in view, got %q", view)
		}
		if m.cancel != nil {
			t.Error("expected cancel func to be cleared after completion")
		}
	})

	t.Run("failed run shows hint", func(t *testing.T) {
		pipeline := &fakePipeline{err: shared.ErrUnsupportedURL}
		m := NewModel(context.Background(), pipeline, fakeHistory{})
		typeText(m, "https://example.com/nope")
		enter(m)
		drain(t, m)

		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.State())
		}
		if !errors.Is(m.err, shared.ErrUnsupportedURL) {
			t.Errorf("expected ErrUnsupportedURL, got %v", m.err)
		}
		if !strings.Contains(m.View(), "open.spotify.com") {
			t.Error("expected hint in result view")
		}
	})

	t.Run("esc on result returns to input", func(t *testing.T) {
		m := NewModel(context.Background(), &fakePipeline{result: sampleResult()}, fakeHistory{})
		typeText(m, "liked")
		enter(m)
		drain(t, m)

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.State() != InputView {
			t.Errorf("expected InputView, got %v", m.State())
		}
		if m.result != nil || m.lines != nil {
			t.Error("expected run state to be reset")
		}
	})

	t.Run("history", func(t *testing.T) {
		t.Run("loads into list view", func(t *testing.T) {
			lines := []string{
				"[2026-01-02 10:00:00] SUCCESS | A - One | 3 songs | MP3",
				"[2026-01-03 10:00:00] SUCCESS | B - Two | 5 songs | FLAC",
			}
			m := NewModel(context.Background(), &fakePipeline{}, fakeHistory{lines: lines})
			typeText(m, "history")
			cmd := enter(m)
			if cmd == nil {
				t.Fatal("expected history command")
			}
			m.Update(cmd())

			if m.State() != HistoryView {
				t.Fatalf("expected HistoryView, got %v", m.State())
			}
			items := m.historyList.Items()
			if len(items) != 2 {
				t.Fatalf("expected 2 items, got %d", len(items))
			}
			if got := items[0].(historyItem).Title(); got != "B - Two" {
				t.Errorf("expected newest first, got %q", got)
			}

			m.Update(tea.KeyMsg{Type: tea.KeyEsc})
			if m.State() != InputView {
				t.Errorf("expected InputView after esc, got %v", m.State())
			}
		})

		t.Run("empty log shows notice", func(t *testing.T) {
			m := NewModel(context.Background(), &fakePipeline{}, fakeHistory{lines: []string{}})
			m.Update(historyLoadedMsg([]string{}, nil))
			if m.State() != InputView {
				t.Errorf("expected InputView, got %v", m.State())
			}
			if !strings.Contains(m.View(), "No downloads recorded yet") {
				t.Error("expected empty notice")
			}
		})

		t.Run("read error shows notice", func(t *testing.T) {
			m := NewModel(context.Background(), &fakePipeline{}, fakeHistory{})
			m.Update(historyLoadedMsg(nil, errors.New("permission denied")))
			if !strings.Contains(m.View(), "permission denied") {
				t.Error("expected error notice")
			}
		})
	})

	t.Run("ctrl+c quits while running", func(t *testing.T) {
		block := make(chan struct{})
		m := NewModel(context.Background(), blockingPipeline(block), fakeHistory{})
		typeText(m, "liked")
		enter(m)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected QuitMsg")
		}
		close(block)
	})
}

type blockingPipeline chan struct{}

func (b blockingPipeline) Run(ctx context.Context, url string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	select {
	case <-b:
	case <-ctx.Done():
	}
	return nil, ctx.Err()
}

func TestHistoryItem(t *testing.T) {
	t.Run("parses run log layout", func(t *testing.T) {
		item := historyItem{line: "[2026-01-02 10:00:00] SUCCESS | Radiohead - OK Computer | 12 songs | MP3"}
		if got := item.Title(); got != "Radiohead - OK Computer" {
			t.Errorf("expected title, got %q", got)
		}
		if got := item.Description(); got != "2026-01-02 10:00:00 • 12 songs • MP3" {
			t.Errorf("expected description, got %q", got)
		}
	})

	t.Run("falls back to raw line", func(t *testing.T) {
		item := historyItem{line: "something else"}
		if got := item.Title(); got != "something else" {
			t.Errorf("expected raw line, got %q", got)
		}
		if got := item.Description(); got != "" {
			t.Errorf("expected empty description, got %q", got)
		}
	})
}
