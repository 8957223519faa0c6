// Package cli provides the command-line interface for the Axio Hub client.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/app"
	"github.com/axio-hub/axio-go/internal/config"
	"github.com/axio-hub/axio-go/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global shell, built once per invocation
	shell      *app.Shell
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "axio",
	Short: "Axio Hub terminal client",
	Long: `Axio is the terminal client for Axio Hub - ingest documents from files,
web pages, Notion, or Google Drive into your knowledge base and track
ingestion progress, notifications, usage, and your team from the shell.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		logger, cleanup := config.SetupLogger(cfg.LogFile, level)
		logCleanup = cleanup

		shell, err = app.NewShell(cfg, logger, terminalToaster{})
		if err != nil {
			return fmt.Errorf("initialize client: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shell != nil {
			shell.Close()
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// requireSession errors when no one is signed in.
func requireSession() error {
	if !shell.Session().SignedIn() {
		return fmt.Errorf("not signed in: run 'axio login' first")
	}
	return nil
}

var (
	toastTitleStyle = lipgloss.NewStyle().Bold(true)
	toastErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
)

// terminalToaster renders store toasts as styled stderr lines.
type terminalToaster struct{}

func (terminalToaster) Toast(t store.Toast) {
	style := toastTitleStyle
	if t.Variant == store.VariantDestructive {
		style = toastErrStyle
	}
	line := style.Render(t.Title)
	if t.Description != "" {
		line += ": " + t.Description
	}
	fmt.Fprintln(os.Stderr, line)
}
