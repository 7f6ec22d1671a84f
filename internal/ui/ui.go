package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotdown/internal/shared"
	"github.com/desertthunder/spotdown/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	RunningView
	ResultView
	HistoryView
)

const recentLines = 6

// HistoryReader reads the run log.
type HistoryReader interface {
	Read() ([]string, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	pipeline tasks.Pipeline
	history  HistoryReader
	width    int
	height   int

	input       textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model
	historyList list.Model
	help        help.Model
	keys        keyMap

	url        string
	cancel     context.CancelFunc
	progressCh <-chan tasks.ProgressUpdate
	doneCh     <-chan runComplete
	progress   tasks.ProgressUpdate
	lines      []string
	result     *tasks.RunResult
	err        error
	notice     string
	quitting   bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, pipeline tasks.Pipeline, history HistoryReader) *Model {
	input := textinput.New()
	input.Placeholder = "https://open.spotify.com/album/..."
	input.Prompt = "› "
	input.CharLimit = 512
	input.Width = 72
	input.Focus()

	return &Model{
		ctx:      ctx,
		view:     InputView,
		pipeline: pipeline,
		history:  history,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		viewport: viewport.New(80, 16),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// State returns the current view state.
func (m *Model) State() ViewState {
	return m.view
}

// Init starts the cursor blinking in the URL input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-6)
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(5, msg.Height-8)
		if m.view == HistoryView {
			m.historyList.SetSize(msg.Width-4, msg.Height-4)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopRun()
			m.quitting = true
			return m, tea.Quit
		}
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case RunningView:
			return m.handleRunningKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunningView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == HistoryView {
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		m.lines = append(m.lines, update.Message)
		return m, waitForProgress(m.progressCh, m.doneCh)

	case MsgRunComplete:
		done := msg.data.(runComplete)
		m.stopRun()
		m.result = done.result
		m.err = done.err
		m.view = ResultView
		m.viewport.SetContent(m.renderRunLog())
		m.viewport.GotoTop()
		return m, nil

	case MsgHistoryLoaded:
		loaded := msg.data.(historyLoaded)
		if loaded.err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("Could not read history: %v", loaded.err))
			return m, nil
		}
		if len(loaded.lines) == 0 {
			m.notice = styles.warn.Render("No downloads recorded yet.")
			return m, nil
		}
		w, h := max(40, m.width-4), max(10, m.height-4)
		m.historyList = list.New(historyItems(loaded.lines), list.NewDefaultDelegate(), w, h)
		m.historyList.Title = fmt.Sprintf("Download history (%d)", len(loaded.lines))
		m.view = HistoryView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	value := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.notice = ""

	switch strings.ToLower(value) {
	case "":
		return m, nil
	case "exit", "quit", "q":
		m.quitting = true
		return m, tea.Quit
	case "history":
		return m, m.loadHistory()
	}
	return m, m.startRun(value)
}

func (m *Model) handleRunningKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && m.cancel != nil {
		m.cancel()
		m.lines = append(m.lines, "Cancelling...")
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), msg.Type == tea.KeyEnter:
		m.reset()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) && m.historyList.FilterState() == list.Unfiltered {
		m.reset()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) reset() {
	m.view = InputView
	m.url = ""
	m.lines = nil
	m.result = nil
	m.err = nil
	m.progress = tasks.ProgressUpdate{}
	m.input.Focus()
}

func (m *Model) stopRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		lines, err := m.history.Read()
		return historyLoadedMsg(lines, err)
	}
}

// startRun launches the pipeline for url in the background and streams its progress back as messages.
func (m *Model) startRun(url string) tea.Cmd {
	runCtx, cancel := context.WithCancel(m.ctx)
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan runComplete, 1)

	m.url = url
	m.cancel = cancel
	m.progressCh = progress
	m.doneCh = done
	m.lines = nil
	m.view = RunningView
	m.input.Blur()

	pipeline := m.pipeline
	go func() {
		result, err := pipeline.Run(runCtx, url, progress)
		close(progress)
		done <- runComplete{url: url, result: result, err: err}
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progress, done))
}

// waitForProgress delivers the next update, or the final result once the progress channel closes.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan runComplete) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		c := <-done
		return runCompleteMsg(c.url, c.result, c.err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case InputView:
		return m.renderInput()
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	case HistoryView:
		return m.historyList.View() + "\n" + m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	default:
		return ""
	}
}

func (m *Model) renderInput() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("spotdown"))
	b.WriteString("\nPaste a Spotify album, playlist, or track link (or \"liked\").\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(m.notice + "\n\n")
	}
	b.WriteString(styles.help.Render("type history to browse past downloads, exit to quit"))
	b.WriteString("\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderRunning() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Downloading"))
	b.WriteString("\n" + styles.help.Render(m.url) + "\n\n")

	fmt.Fprintf(&b, "%s %s", m.spinner.View(), m.progress.Phase)
	if m.progress.Phase == tasks.PhaseConvert && m.progress.Total > 0 {
		fmt.Fprintf(&b, " (%d/%d)", m.progress.Step, m.progress.Total)
	}
	b.WriteString("\n\n")

	start := max(0, len(m.lines)-recentLines)
	recent := m.lines[start:]
	b.WriteString(styles.box.Render(strings.Join(recent, "\n")))
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.cancel, m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder
	b.WriteString(m.summary())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.up, m.keys.down, m.keys.quit}))
	return b.String()
}

func (m *Model) summary() string {
	if m.err != nil {
		text := fmt.Sprintf("✗ %v", m.err)
		if errors.Is(m.err, context.Canceled) {
			text = "✗ Cancelled"
		}
		if hint := shared.Hint(m.err); hint != "" {
			text += "\n" + styles.help.Render(hint)
		}
		return styles.err.Render(text)
	}
	if m.result == nil {
		return styles.warn.Render("No result")
	}

	r := m.result
	text := fmt.Sprintf("✓ %s - %s: %d/%d tracks converted from %s",
		r.Metadata.Artist, r.Metadata.Title, r.Converted, r.Total, r.Format)
	if r.Converted < r.Total {
		return styles.warn.Render(text)
	}
	return styles.ok.Render(text)
}

func (m *Model) renderRunLog() string {
	lines := append([]string{}, m.lines...)
	if m.result != nil && m.result.Dir != "" {
		lines = append(lines, "", "Saved to "+m.result.Dir)
	}
	return strings.Join(lines, "\n")
}
