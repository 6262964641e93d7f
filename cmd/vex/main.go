package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vexscan/vex/internal/browser"
	"github.com/vexscan/vex/internal/config"
	"github.com/vexscan/vex/internal/fragment"
	"github.com/vexscan/vex/internal/session"
	"github.com/vexscan/vex/internal/tui"
	"github.com/vexscan/vex/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// sessionFilePath returns ~/.vex/session.json.
func sessionFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".vex", "session.json"), nil
}

// parseLevel maps the configured log level to slog. Unknown values get info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogger writes JSON logs to ~/.vex/vex.log. The TUI owns the terminal,
// so nothing may log to stdout or stderr while it runs.
func openLogger(cfg config.Config) (*slog.Logger, func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".vex")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "vex.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	closeFn := func() { f.Close() } //nolint:errcheck
	return logger, closeFn, nil
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("vex " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "terms":
			return openLegal("terms")
		case "privacy":
			return openLegal("privacy")
		case "logout":
			return runLogout()
		}
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	sessPath, err := sessionFilePath()
	if err != nil {
		return err
	}
	store, err := session.NewFileStore(sessPath, logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	api := client.New(cfg.APIURL, cfg.Timeout)
	nav := tui.NewNavBridge()
	sessions := session.NewController(cfg, api, store, nav, logger)
	loader := fragment.NewLoader(cfg, api, sessions, logger)

	app := tui.NewApp(cfg, api, sessions, loader, nav, version)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// nopNav satisfies session.Navigator for the non-interactive subcommands.
type nopNav struct{}

func (nopNav) Go(string) {}

func runLogout() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	sessPath, err := sessionFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(sessPath); os.IsNotExist(err) {
		fmt.Println("Already logged out.")
		return nil
	}

	// Quiet logger: logout is a one-shot command, nothing worth a log file.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := session.NewFileStore(sessPath, logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	api := client.New(cfg.APIURL, cfg.Timeout)
	sessions := session.NewController(cfg, api, store, nopNav{}, logger)
	sessions.Logout(context.Background())
	fmt.Println("Logged out.")
	return nil
}

func openLegal(page string) error {
	url := "https://vexscan.io/" + page
	if err := browser.Open(url); err != nil {
		fmt.Println(url)
	}
	return nil
}

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("V E X S C A N")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Static and behavioral analysis for suspicious binaries.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	commands := []struct{ cmd, desc string }{
		{"vex", "Open the dashboard (interactive TUI)"},
		{"vex logout", "Clear your session"},
		{"vex terms", "Open the terms of service"},
		{"vex privacy", "Open the privacy policy"},
		{"vex --version", "Show version"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n", title, tagline)
	fmt.Printf("  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-16s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Printf("\n  %s\n", sectionStyle.Render("Configuration"))
	fmt.Printf("    %s\n", descStyle.Render("~/.vex/config.yaml or VEX_* environment variables"))
	fmt.Printf("    %s\n\n", descStyle.Render("keys: api_url, require_auth, login_path, landing_path, timeout, log_level"))
}
