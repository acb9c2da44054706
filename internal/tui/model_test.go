package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"txconv/internal/transcoder"
)

func TestModelAccumulatesUpdates(t *testing.T) {
	m := NewModel(nil, nil)

	for _, u := range []transcoder.ProgressUpdate{
		{TotalDelta: 1},
		{TotalDelta: 1},
		{ProcessedDelta: 1, LinesDelta: 10, CharsDelta: 120},
		{SkippedDelta: 1},
	} {
		next, _ := m.Update(updateMsg(u))
		m = next.(Model)
	}

	if m.total != 2 || m.processed != 1 || m.skipped != 1 || m.lines != 10 || m.chars != 120 {
		t.Fatalf("unexpected model state: %+v", m)
	}
	view := m.View()
	if !strings.Contains(view, "Files: 2/2") || !strings.Contains(view, "Lines: 10") {
		t.Fatalf("view missing counters:\n%s", view)
	}

	next, _ := m.Update(doneMsg{})
	if next.(Model).View() != "" {
		t.Fatal("view should be empty once done")
	}
}

func TestRenderSummaryAlignsColumns(t *testing.T) {
	out := RenderSummary([]SummaryRow{
		{Label: "Lines", Value: "3"},
		{Label: "Characters", Value: "12345"},
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Characters") || !strings.Contains(out, "12345") {
		t.Fatalf("summary missing content:\n%s", out)
	}
}

func TestModelCtrlCCancelsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewModel(nil, cancel)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Fatal("ctrl+c should wait for the run to drain, not quit")
	}
	if ctx.Err() == nil {
		t.Fatal("ctrl+c did not cancel the run")
	}
	if !strings.Contains(next.(Model).View(), "Stopping") {
		t.Fatalf("view does not show cancellation:\n%s", next.(Model).View())
	}

	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !next.(Model).stopping {
		t.Fatal("stopping state lost")
	}
}
