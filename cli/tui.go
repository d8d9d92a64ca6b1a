// ABOUTME: TUI subcommand
// ABOUTME: Launches the full-screen bubbletea admin interface
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/mbgctl/tui"
)

// TUICommand runs the interactive interface until the user quits.
func TUICommand(app *App, args []string) error {
	if !app.Sessions.Current().HasTokens() {
		return fmt.Errorf("not logged in: run 'mbgctl login' first")
	}

	p := tea.NewProgram(tui.NewModel(context.Background(), app.Set), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
