package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/mbgctl/hooks"
	"github.com/harperreed/mbgctl/resources"
)

// Form fields sent as JSON numbers or booleans rather than strings.
var (
	numberFields = map[string]bool{"age": true, "quantity": true, "totalPrice": true, "maxBranches": true, "maxUsers": true}
	boolFields   = map[string]bool{"isHeadquarters": true}
)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	title := strings.ToUpper(singular(m.resource()))
	if m.selectedID == "" {
		s.WriteString(titleStyle.Render("NEW " + title))
	} else {
		s.WriteString(titleStyle.Render("EDIT " + title))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(fieldLabelStyle.Render(m.formFields[i]))
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		if m.selectedID == "" {
			m.viewMode = ViewList
		} else {
			m.viewMode = ViewDetail
		}
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		return m, m.saveEntity()
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

// initFormInputs builds one input per request field, prefilled from the
// loaded entity when editing.
func (m *Model) initFormInputs() {
	m.formFields = resources.FormFields(m.resource())
	m.formInputs = make([]textinput.Model, len(m.formFields))

	for i, field := range m.formFields {
		input := textinput.New()
		input.Placeholder = field
		input.CharLimit = 200
		if v := resources.Field(m.detail, field); v != nil {
			if value := resources.Cell(v); value != "-" {
				input.SetValue(value)
			}
		}
		m.formInputs[i] = input
	}

	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// formBody converts the form into a JSON request body. Empty fields are left out.
func (m Model) formBody() (json.RawMessage, error) {
	obj := make(map[string]any)
	for i, field := range m.formFields {
		value := strings.TrimSpace(m.formInputs[i].Value())
		if value == "" {
			continue
		}
		switch {
		case numberFields[field]:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", field)
			}
			obj[field] = n
		case boolFields[field]:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%s must be true or false", field)
			}
			obj[field] = b
		default:
			obj[field] = value
		}
	}
	return json.Marshal(obj)
}

func (m Model) saveEntity() tea.Cmd {
	ctx, id := m.ctx, m.selectedID
	body, err := m.formBody()
	if err != nil {
		return func() tea.Msg { return savedMsg{err: err} }
	}
	d, err := m.dynamic()
	if err != nil {
		return func() tea.Msg { return savedMsg{err: err} }
	}

	if id == "" {
		create := hooks.NewCreate(func(ctx context.Context, body json.RawMessage) (*json.RawMessage, error) {
			raw, err := d.Create(ctx, body)
			return &raw, err
		})
		return func() tea.Msg {
			_, err := create.Create(ctx, body)
			return savedMsg{err: err}
		}
	}

	update := hooks.NewUpdate(func(ctx context.Context, id string, body json.RawMessage) (*json.RawMessage, error) {
		raw, err := d.Update(ctx, id, body)
		return &raw, err
	})
	return func() tea.Msg {
		_, err := update.Update(ctx, id, body)
		return savedMsg{err: err}
	}
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	if m.selectedID == "" {
		m.status = "✓ Created " + singular(m.resource())
		m.viewMode = ViewList
		return m, m.reload()
	}
	m.status = "✓ Saved"
	m.viewMode = ViewDetail
	return m, m.loadDetail()
}

func singular(name string) string {
	switch name {
	case resources.NameBranches:
		return "branch"
	case resources.NameMealPlans:
		return "meal plan"
	}
	return strings.TrimSuffix(name, "s")
}
