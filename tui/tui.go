// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Provides interactive full-screen interface for MBG admin operations
package tui

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/mbgctl/hooks"
	"github.com/harperreed/mbgctl/resources"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

const pageSize = 20

// Messages produced by the commands the model schedules.
type (
	listLoadedMsg   struct{ err error }
	detailLoadedMsg struct {
		entity map[string]any
		err    error
	}
	savedMsg   struct{ err error }
	deletedMsg struct{ err error }
	graphMsg   struct {
		dot string
		err error
	}
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	set      *resources.Set
	viewMode ViewMode

	// One tab per top-level collection; branches are reached through the graph.
	tabs []string
	tab  int

	// List view state
	list        *hooks.List[json.RawMessage]
	selectedRow int

	// Detail view state
	selectedID string
	detail     map[string]any

	// Edit view state
	formFields []string
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT string

	status string

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, set *resources.Set) Model {
	var tabs []string
	for _, name := range resources.Names() {
		if name != resources.NameBranches {
			tabs = append(tabs, name)
		}
	}
	m := Model{
		ctx:      ctx,
		set:      set,
		viewMode: ViewList,
		tabs:     tabs,
		width:    80,
		height:   24,
	}
	m.list = m.newList()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadPage(0)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case listLoadedMsg:
		m.err = msg.err
		if n := len(m.list.State().Items); m.selectedRow >= n {
			m.selectedRow = max(n-1, 0)
		}
		return m, nil
	case detailLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.detail = msg.entity
		}
		return m, nil
	case savedMsg:
		return m.handleSaved(msg)
	case deletedMsg:
		return m.handleDeleted(msg)
	case graphMsg:
		m.err = msg.err
		m.graphDOT = msg.dot
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.viewMode != ViewEdit {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) resource() string {
	return m.tabs[m.tab]
}

func (m Model) dynamic() (resources.Dynamic, error) {
	return m.set.Dynamic(m.resource(), "")
}

// newList binds a list hook to the active tab.
func (m Model) newList() *hooks.List[json.RawMessage] {
	name := m.resource()
	set := m.set
	return hooks.NewList(func(ctx context.Context, p resources.Page) (*resources.Listing[json.RawMessage], error) {
		d, err := set.Dynamic(name, "")
		if err != nil {
			return nil, err
		}
		return d.List(ctx, resources.WithPage(p.Page, p.Size))
	})
}

func (m Model) loadPage(page int) tea.Cmd {
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		_, err := list.FetchPage(ctx, page, pageSize)
		return listLoadedMsg{err: err}
	}
}

func (m Model) reload() tea.Cmd {
	return m.loadPage(m.list.State().Page)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}
