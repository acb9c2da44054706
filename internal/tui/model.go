package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"txconv/internal/transcoder"
)

type Model struct {
	updates   <-chan transcoder.ProgressUpdate
	cancel    context.CancelFunc
	bar       progress.Model
	started   time.Time
	width     int
	total     int
	processed int
	skipped   int
	errors    int
	lines     int64
	chars     int64
	quitting  bool
	stopping  bool
}

type doneMsg struct{}

type updateMsg transcoder.ProgressUpdate

// NewModel renders updates until the channel is closed. Ctrl+C calls cancel
// and keeps the view up while in-flight files finish.
func NewModel(updates <-chan transcoder.ProgressUpdate, cancel context.CancelFunc) Model {
	bar := progress.New(progress.WithGradient(string(ColorAccentAlt), string(ColorAccent)))
	return Model{updates: updates, cancel: cancel, bar: bar, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.skipped += msg.SkippedDelta
		m.errors += msg.ErrorDelta
		m.lines += msg.LinesDelta
		m.chars += msg.CharsDelta
		return m, listenForUpdates(m.updates)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = min(60, m.width-10)
		if barWidth < 20 {
			barWidth = 20
		}
	}
	m.bar.Width = barWidth

	done := m.processed + m.skipped + m.errors
	ratio := 0.0
	if m.total > 0 {
		ratio = min(1, float64(done)/float64(m.total))
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("txconv"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", done, m.total)) +
			dimStyle.Render(fmt.Sprintf("  skipped:%d errors:%d", m.skipped, m.errors)),
		labelStyle.Render(fmt.Sprintf("Lines: %d", m.lines)),
		labelStyle.Render(fmt.Sprintf("Characters: %d", m.chars)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		m.bar.ViewAs(ratio),
	}
	if m.stopping {
		lines = append(lines, dimStyle.Render("Stopping after files in progress..."))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan transcoder.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
