package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/mbgctl/resources"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("MBG ADMIN"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderPager())
	s.WriteString("\n")

	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string

	for i, tab := range m.tabs {
		if i == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	state := m.list.State()
	if state.Loading {
		return "Loading..."
	}

	names := resources.Columns(m.resource())
	columns := make([]table.Column, len(names))
	for i, name := range names {
		width := 18
		if name == "id" {
			width = 28
		}
		columns[i] = table.Column{Title: name, Width: width}
	}

	var rows []table.Row
	for _, item := range state.Items {
		obj := decodeObject(item)
		row := make(table.Row, len(names))
		for i, name := range names {
			row[i] = resources.Cell(resources.Field(obj, name))
		}
		rows = append(rows, row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderPager() string {
	state := m.list.State()
	pages := int64(1)
	if state.Size > 0 && state.Total > 0 {
		pages = (state.Total + int64(state.Size) - 1) / int64(state.Size)
	}
	return helpStyle.Render(fmt.Sprintf("Page %d of %d • %d total", state.Page+1, pages, state.Total))
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch resource",
		"[/]: Page",
		"Enter: View details",
		"n: New",
		"r: Reload",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.list.State()

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(state.Items)-1 {
			m.selectedRow++
		}
	case "tab", "shift+tab":
		if msg.String() == "tab" {
			m.tab = (m.tab + 1) % len(m.tabs)
		} else {
			m.tab = (m.tab + len(m.tabs) - 1) % len(m.tabs)
		}
		m.selectedRow = 0
		m.status = ""
		m.err = nil
		m.list = m.newList()
		return m, m.loadPage(0)
	case "]":
		if int64((state.Page+1)*state.Size) < state.Total {
			m.selectedRow = 0
			return m, m.loadPage(state.Page + 1)
		}
	case "[":
		if state.Page > 0 {
			m.selectedRow = 0
			return m, m.loadPage(state.Page - 1)
		}
	case "r":
		return m, m.reload()
	case "enter":
		id := m.getSelectedID()
		if id == "" {
			return m, nil
		}
		m.viewMode = ViewDetail
		m.selectedID = id
		m.detail = nil
		m.status = ""
		return m, m.loadDetail()
	case "n":
		// Switch to edit view (new)
		m.selectedID = ""
		m.detail = nil
		m.initFormInputs()
		m.viewMode = ViewEdit
	}

	return m, nil
}

func (m Model) getSelectedID() string {
	items := m.list.State().Items
	if m.selectedRow >= len(items) {
		return ""
	}
	id, _ := decodeObject(items[m.selectedRow])["id"].(string)
	return id
}

func decodeObject(raw json.RawMessage) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return map[string]any{}
	}
	return obj
}
