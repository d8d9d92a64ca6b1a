package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(m.renderStatus())
	case m.graphDOT == "":
		s.WriteString("Generating graph...\n")
	default:
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		m.graphDOT = ""
		m.err = nil
	}

	return m, nil
}

func (m Model) generateGraph() tea.Cmd {
	generator := viz.NewGraphGenerator(m.set)
	ctx, id, name := m.ctx, m.selectedID, m.resource()

	return func() tea.Msg {
		var dot string
		var err error

		switch name {
		case resources.NameOrganizations:
			dot, err = generator.GenerateOrganizationGraph(ctx, id)
		default:
			dot, err = generator.GenerateOrderGraph(ctx)
		}

		return graphMsg{dot: dot, err: err}
	}
}
