package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowbuilder/pkg/store"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// DraftListModel - Interactive draft selection
// =============================================================================

// DraftListModel is the bubbletea model for picking a stored draft.
type DraftListModel struct {
	Drafts   []store.Info
	Cursor   int
	Selected *store.Info
	Height   int
	Offset   int

	now func() time.Time
}

// NewDraftListModel creates a list over drafts, most recent first.
func NewDraftListModel(drafts []store.Info) DraftListModel {
	return DraftListModel{Drafts: drafts, Height: 15, now: time.Now}
}

func (m DraftListModel) Init() tea.Cmd {
	return nil
}

func (m DraftListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Drafts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Drafts) == 0 {
				return m, nil
			}
			d := m.Drafts[m.Cursor]
			m.Selected = &d
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m DraftListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Draft"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Drafts))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		d := m.Drafts[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.ID, d.Name, strconv.Itoa(d.Nodes), strconv.Itoa(d.Edges), m.relative(d.UpdatedAt)})
	}

	b.WriteString(draftTable(rows).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return draftHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Drafts)), len(m.Drafts))))

	return b.String()
}

func (m DraftListModel) relative(t time.Time) string {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	return formatRelativeTime(t, now())
}

// =============================================================================
// Helpers
// =============================================================================

var draftHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func draftTable(rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Nodes", "Edges", "Updated").
		Rows(rows...)
}

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
