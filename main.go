// ABOUTME: Entry point for the MBG admin CLI, TUI and MCP server
// ABOUTME: Loads configuration, sets up logging, and routes to subcommands
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/charm"
	"github.com/harperreed/mbgctl/cli"
	"github.com/harperreed/mbgctl/config"
	"github.com/harperreed/mbgctl/logging"
	"github.com/harperreed/mbgctl/resources"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/mbgctl/config.yaml)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Usage = printUsage

	// Parse global flags; everything after the command belongs to it
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("mbgctl version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	logger := logging.Setup()
	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fatal(logger, err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger = logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	command := args[0]
	commandArgs := args[1:]

	// Commands that don't talk to the backend
	switch command {
	case "version":
		fmt.Printf("mbgctl version %s\n", version)
		return
	case "help":
		printUsage()
		return
	case "config":
		if err := cli.ConfigCommand(cfg, *configPath, os.Stdout, commandArgs); err != nil {
			fatal(logger, err)
		}
		return
	case "dev-server":
		if err := cli.DevServerCommand(cfg.DevServerAddr, logger, os.Stdout, commandArgs); err != nil {
			fatal(logger, err)
		}
		return
	case "charm":
		if err := runCharm(commandArgs); err != nil {
			fatal(logger, err)
		}
		return
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := cli.NewApp(cfg, logger, api.NewMetrics(registry))
	if err != nil {
		fatal(logger, err)
	}
	defer app.Close()

	switch command {
	case "login":
		err = cli.LoginCommand(app, commandArgs)
	case "logout":
		err = cli.LogoutCommand(app, commandArgs)
	case "whoami":
		err = cli.WhoAmICommand(app, commandArgs)
	case "refresh":
		err = cli.RefreshCommand(app, commandArgs)
	case "profile":
		err = cli.ProfileCommand(app, commandArgs)
	case "graph":
		err = cli.GraphCommand(app, commandArgs)
	case "dashboard":
		err = cli.DashboardCommand(app, commandArgs)
	case "tui":
		err = cli.TUICommand(app, commandArgs)
	case "mcp":
		err = cli.MCPCommand(app, version, registry)
	default:
		if !isResource(command) {
			fmt.Printf("Unknown command: %s\n\n", command)
			printUsage()
			_ = app.Close()
			os.Exit(1)
		}
		err = cli.ResourceCommand(app, command, commandArgs)
	}

	if err != nil {
		_ = app.Close()
		fatal(logger, err)
	}
}

func runCharm(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("charm requires a subcommand: status, sync, auto-sync, wipe")
	}
	switch args[0] {
	case "status":
		return charm.StatusCommand(args[1:])
	case "sync":
		return charm.SyncNowCommand(args[1:])
	case "auto-sync":
		return charm.SetAutoSyncCommand(args[1:])
	case "wipe":
		return charm.WipeCommand(args[1:])
	}
	return fmt.Errorf("unknown charm command: %s", args[0])
}

func isResource(name string) bool {
	for _, n := range resources.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func fatal(logger *slog.Logger, err error) {
	logger.Error("command failed", "error", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`mbgctl v%s - MBG admin console client

USAGE:
  mbgctl [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/mbgctl/config.yaml)
  --env-file <path>      dotenv file loaded before the environment (default: .env)
  --log-level <level>    debug, info, warn, error

SESSION:
  mbgctl login [--email <email>] [--password <password>]
  mbgctl logout
  mbgctl whoami
  mbgctl refresh                 Exchange the refresh token for a new session
  mbgctl profile [show]          Fetch the signed-in account from the backend
  mbgctl profile update [--first-name s] [--last-name s] [--phone s] [--address s]
  mbgctl profile password        Change the password (prompted)

RESOURCES:
  mbgctl <resource> list [--page n] [--size n] [--filter key=value] [--json]
  mbgctl <resource> get <id>
  mbgctl <resource> create --data '<json>' | --file <path>
  mbgctl <resource> update <id> --data '<json>' | --file <path>
  mbgctl <resource> delete <id>

  Resources: organizations, branches (--org <id>), schools, students, meals,
             meal-plans, orders, suppliers, announcements, documents

  mbgctl organizations activate <id>
  mbgctl organizations deactivate <id>
  mbgctl orders status <id> <PENDING|CONFIRMED|IN_PROGRESS|DELIVERED|CANCELLED>
  mbgctl documents pending|stats
  mbgctl documents approve <id>
  mbgctl documents reject <id> --reason <text>

VISUALIZATION:
  mbgctl graph organizations [id] [--output <file>]
  mbgctl graph orders [--output <file>]
  mbgctl dashboard

INTERFACES:
  mbgctl tui                     Full-screen admin interface
  mbgctl mcp                     MCP server on stdio (metrics on metrics_addr when set)

TOOLING:
  mbgctl dev-server [--addr host:port]   In-memory backend for local use
  mbgctl config [show|init|path]
  mbgctl charm status|sync|auto-sync|wipe

EXAMPLES:
  # Try everything locally
  mbgctl dev-server &
  mbgctl login --email admin@mbg.local --password admin123

  # Create a school and list students in it
  mbgctl schools create --data '{"name": "SDN 1 Bandung"}'
  mbgctl students list --filter schoolId=<id>

`, version)
}
