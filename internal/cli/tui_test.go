package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flowbuilder/pkg/store"
)

func TestDraftListModel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewDraftListModel([]store.Info{
		{ID: "ingest", Name: "Ingest", Nodes: 4, Edges: 3, UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "summarize", Name: "Summarize", Nodes: 2, Edges: 1, UpdatedAt: now.Add(-3 * 24 * time.Hour)},
	})
	m.now = func() time.Time { return now }

	view := m.View()
	for _, want := range []string{"Select Draft", "ingest", "Summarize", "2h ago", "3d ago", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(DraftListModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(DraftListModel)
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (clamped)", m.Cursor)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(DraftListModel)
	if m.Selected == nil || m.Selected.ID != "summarize" {
		t.Errorf("selected = %+v", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestDraftListModelQuitWithoutSelection(t *testing.T) {
	m := NewDraftListModel(nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(DraftListModel).Selected != nil || cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc should quit")
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Jan 30, 2026"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := formatRelativeTime(time.Time{}, now); got != "—" {
		t.Errorf("zero time = %q", got)
	}
}
