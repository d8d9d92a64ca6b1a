// ABOUTME: config subcommand
// ABOUTME: Prints the effective configuration or writes it to the config file
package cli

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/mbgctl/config"
)

// ConfigCommand handles `config show` and `config init`.
func ConfigCommand(cfg *config.Config, path string, out io.Writer, args []string) error {
	if path == "" {
		path = config.DefaultPath()
	}

	action := "show"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "show":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Fprintf(out, "# %s\n%s", path, data)
		return nil
	case "init", "save":
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %s\n", path)
		return nil
	case "path":
		fmt.Fprintln(out, path)
		return nil
	}
	return fmt.Errorf("unknown config action: %s (valid: show, init, path)", action)
}
