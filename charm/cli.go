// ABOUTME: CLI commands for the Charm KV credential backend
// ABOUTME: Status, manual sync, auto-sync toggle, and wipe of locally stored tokens

package charm

import (
	"flag"
	"fmt"
)

// StatusCommand shows the charm backend configuration and connection state.
func StatusCommand(args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Charm Credential Backend")
	fmt.Println("────────────────────────")
	fmt.Printf("Server:    %s\n", cfg.Host)
	fmt.Printf("Auto-sync: %v\n", cfg.AutoSync)
	fmt.Printf("Config:    %s\n", cfg.Path())
	fmt.Printf("Config:    %s\n", cfg.Path())

	c, err := NewClient(cfg)
	if err != nil {
		fmt.Println("\nStatus: Not available")
		return nil //nolint:nilerr // Not connected is a valid state, not an error
	}

	if id, err := c.ID(); err != nil {
		fmt.Println("\nStatus: Local only")
	} else {
		fmt.Println("\nStatus: Connected to Charm Cloud")
		fmt.Printf("ID:        %s\n", id)
	}

	if keys, err := c.Keys(); err == nil {
		fmt.Printf("Keys:      %d\n", len(keys))
	}
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(args []string) error {
	fs := flag.NewFlagSet("charm sync", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println("✓ Synced")
	return nil
}

// SetAutoSyncCommand enables or disables auto-sync.
func SetAutoSyncCommand(args []string) error {
	fs := flag.NewFlagSet("charm auto", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	_ = fs.Parse(args)

	if !*enable && !*disable {
		fmt.Println("Usage: mbgctl charm auto --enable|--disable")
		return nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *enable {
		if err := cfg.SetAutoSync(true); err != nil {
			return fmt.Errorf("failed to enable auto-sync: %w", err)
		}
		fmt.Println("✓ Auto-sync enabled (tokens will follow your charm account)")
	} else {
		if err := cfg.SetAutoSync(false); err != nil {
			return fmt.Errorf("failed to disable auto-sync: %w", err)
		}
		fmt.Println("✓ Auto-sync disabled")
	}

	return nil
}

// WipeCommand removes everything stored in the charm KV database.
func WipeCommand(args []string) error {
	fs := flag.NewFlagSet("charm wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This deletes all tokens stored in the charm backend!")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  mbgctl charm wipe --confirm")
		return nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Println("✓ Charm credential data wiped")
	return nil
}
