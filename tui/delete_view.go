// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Deletes the selected entity after a confirmation dialog
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/mbgctl/hooks"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	entityType := singular(m.resource())
	entityName := m.selectedID
	for _, key := range []string{"name", "title"} {
		if v, ok := m.detail[key].(string); ok && v != "" {
			entityName = v
			break
		}
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s?", entityType)
	entityInfo := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(entityType), entityName)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.performDelete()
	case "n", "N", "esc":
		// Cancel delete
		m.viewMode = ViewDetail
	}

	return m, nil
}

func (m Model) performDelete() tea.Cmd {
	ctx, id := m.ctx, m.selectedID
	d, err := m.dynamic()
	if err != nil {
		return func() tea.Msg { return deletedMsg{err: err} }
	}
	remove := hooks.NewDelete(d.Delete)
	return func() tea.Msg {
		return deletedMsg{err: remove.Delete(ctx, id)}
	}
}

func (m Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	m.viewMode = ViewList
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.status = "✓ Deleted " + singular(m.resource())
	m.selectedID = ""
	m.detail = nil
	return m, m.reload()
}
