// Package tui provides a Bubble Tea terminal user interface for shelve.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/handiism/shelve/internal/config"
	"github.com/handiism/shelve/internal/logging"
	"github.com/handiism/shelve/internal/organize"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxLogs is how many progress messages stay on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateScanning
	StateOrganizing
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   organize.ProgressLevel
}

// eventLog collects progress events from the organizer goroutine until the
// next tick copies them into the model.
type eventLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *eventLog) add(event organize.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Message: event.Message, Level: event.Level})
	if len(l.entries) > maxLogs {
		l.entries = l.entries[len(l.entries)-maxLogs:]
	}
}

func (l *eventLog) drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.entries
	l.entries = nil
	return entries
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	events    *eventLog
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	organizer *organize.Organizer
	unlock    func() error
	summary   *organize.Summary

	processedFiles int32
	failedFiles    int32
	totalFiles     int32

	// Options
	keepSource bool
	dryRun     bool
	verbose    bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "/path/to/unsorted/music"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:      StateInput,
		textInput:  ti,
		spinner:    sp,
		progress:   prog,
		settings:   settings,
		logs:       make([]LogEntry, 0),
		events:     &eventLog{},
		ctx:        ctx,
		cancel:     cancel,
		keepSource: settings.KeepSource,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ScanDoneMsg is sent when the candidate files have been collected.
	ScanDoneMsg struct {
		Organizer *organize.Organizer
		Unlock    func() error
		Err       error
	}

	// OrganizeDoneMsg is sent when every file has been processed.
	OrganizeDoneMsg struct {
		Summary *organize.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			m.release()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateOrganizing || m.state == StateScanning {
				// The current file finishes; nothing after it is touched.
				m.cancel()
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateScanning
				return m, tea.Batch(m.scan(), m.spinner.Tick)
			}

		case "ctrl+k":
			if m.state == StateInput {
				m.keepSource = !m.keepSource
				return m, nil
			}

		case "ctrl+n":
			if m.state == StateInput {
				m.dryRun = !m.dryRun
				return m, nil
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.summary = nil
				m.organizer = nil
				m.processedFiles, m.failedFiles, m.totalFiles = 0, 0, 0
				m.events.drain()
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ScanDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.organizer = msg.Organizer
			m.unlock = msg.Unlock
			m.state = StateOrganizing
			m.collectLogs()
			cmds = append(cmds, m.organize(), m.tickProgress())
		}

	case OrganizeDoneMsg:
		m.release()
		m.collectLogs()
		m.summary = msg.Summary
		if m.organizer != nil {
			m.processedFiles, m.failedFiles, m.totalFiles = m.organizer.GetProgress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.organizer != nil && m.state == StateOrganizing {
			m.collectLogs()
			m.processedFiles, m.failedFiles, m.totalFiles = m.organizer.GetProgress()

			var percent float64
			if m.totalFiles > 0 {
				percent = float64(m.processedFiles) / float64(m.totalFiles)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// collectLogs moves buffered progress events into the visible log.
func (m *Model) collectLogs() {
	for _, entry := range m.events.drain() {
		if entry.Level == organize.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, entry)
	}
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// release drops the run lock, if held.
func (m *Model) release() {
	if m.unlock != nil {
		_ = m.unlock()
		m.unlock = nil
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("♪ shelve"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Organize audio files by artist, album and title"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateScanning:
		b.WriteString(m.viewScanning())
	case StateOrganizing:
		b.WriteString(m.viewOrganizing())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a file or directory to organize:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Keep source files (ctrl+k)\n", checkbox(m.keepSource)))
	b.WriteString(fmt.Sprintf("  %s Dry run (ctrl+n)\n", checkbox(m.dryRun)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")

	target := m.settings.TargetDirectory
	if target == "" {
		target = "(not set: pass it as the first argument or set target_directory)"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Library: %s", target)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewScanning() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking for audio files..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewOrganizing() string {
	var b strings.Builder

	var percent float64
	if m.totalFiles > 0 {
		percent = float64(m.processedFiles) / float64(m.totalFiles)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Failed: %d",
		m.processedFiles,
		m.totalFiles,
		m.failedFiles,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	s := m.summary
	if s == nil {
		s = &organize.Summary{}
	}

	title := "✨ Done!"
	if m.dryRun {
		title = "✨ Dry run complete"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Moved: %d\n"+
			"Copied: %d\n"+
			"Planned: %d\n"+
			"Already in place: %d\n"+
			"Renamed on collision: %d\n"+
			"Failed: %d\n"+
			"Data copied: %s",
		title,
		s.Moved,
		s.Copied,
		s.Planned,
		s.InPlace,
		s.Renamed,
		s.Failed,
		humanize.Bytes(uint64(s.Bytes)),
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case organize.LevelError:
			style = errorStyle
			prefix = "✗"
		case organize.LevelWarning:
			style = warningStyle
			prefix = "!"
		case organize.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case organize.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+k: keep source • ctrl+n: dry run • ctrl+v: verbose • esc: quit"
	case StateScanning, StateOrganizing:
		return "esc: stop after current file"
	case StateComplete, StateError:
		return "r: organize more • q: quit"
	}
	return ""
}

// scan validates the settings, takes the run lock and collects candidates.
func (m *Model) scan() tea.Cmd {
	settings := *m.settings
	settings.KeepSource = m.keepSource
	settings.DryRun = m.dryRun
	input := strings.TrimSpace(m.textInput.Value())
	ctx := m.ctx
	events := m.events

	return func() tea.Msg {
		org, err := organize.New(&settings, logging.Discard(), events.add)
		if err != nil {
			return ScanDoneMsg{Err: err}
		}

		unlock, err := org.Lock()
		if err != nil {
			return ScanDoneMsg{Err: err}
		}

		if err := org.Initialize(ctx, []string{input}); err != nil {
			_ = unlock()
			return ScanDoneMsg{Err: err}
		}

		return ScanDoneMsg{Organizer: org, Unlock: unlock}
	}
}

// organize processes the collected files in the background.
func (m *Model) organize() tea.Cmd {
	org := m.organizer
	ctx := m.ctx

	return func() tea.Msg {
		summary, err := org.Run(ctx)
		return OrganizeDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
