package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/mbgctl/hooks"
	"github.com/harperreed/mbgctl/resources"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render(strings.ToUpper(m.resource()) + " DETAIL"))
	s.WriteString("\n\n")

	if m.detail == nil && m.err == nil {
		s.WriteString("Loading...\n")
	}

	// Columns first, then everything else alphabetically
	shown := make(map[string]bool)
	for _, key := range resources.Columns(m.resource()) {
		if v, ok := m.detail[key]; ok {
			s.WriteString(m.renderField(key, resources.Cell(v)))
			shown[key] = true
		}
	}
	var rest []string
	for key := range m.detail {
		if !shown[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		s.WriteString(m.renderField(key, resources.Cell(m.detail[key])))
	}

	s.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"d: Delete",
	}
	switch m.resource() {
	case resources.NameOrganizations:
		help = append(help, "a: Toggle active", "g: Branch graph")
	case resources.NameOrders:
		help = append(help, "g: Order graph")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.err = nil
		return m, m.reload()
	case "e":
		if m.detail == nil {
			return m, nil
		}
		m.initFormInputs()
		m.viewMode = ViewEdit
	case "d":
		m.viewMode = ViewConfirmDelete
	case "a":
		if m.resource() == resources.NameOrganizations && m.detail != nil {
			active, _ := m.detail["isActive"].(bool)
			return m, m.setActive(!active)
		}
	case "g":
		if m.resource() == resources.NameOrganizations || m.resource() == resources.NameOrders {
			m.viewMode = ViewGraph
			m.graphDOT = ""
			return m, m.generateGraph()
		}
	}

	return m, nil
}

func (m Model) loadDetail() tea.Cmd {
	ctx, id := m.ctx, m.selectedID
	d, err := m.dynamic()
	if err != nil {
		return func() tea.Msg { return detailLoadedMsg{err: err} }
	}
	query := hooks.NewQuery(func(ctx context.Context) (*json.RawMessage, error) {
		raw, err := d.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &raw, nil
	})
	return func() tea.Msg {
		raw, err := query.Fetch(ctx)
		if err != nil {
			return detailLoadedMsg{err: err}
		}
		return detailLoadedMsg{entity: decodeObject(*raw)}
	}
}

func (m Model) setActive(active bool) tea.Cmd {
	ctx, id, orgs := m.ctx, m.selectedID, m.set.Organizations
	return func() tea.Msg {
		org, err := orgs.SetActive(ctx, id, active)
		if err != nil {
			return detailLoadedMsg{err: err}
		}
		raw, err := json.Marshal(org)
		if err != nil {
			return detailLoadedMsg{err: err}
		}
		return detailLoadedMsg{entity: decodeObject(raw)}
	}
}
