// cmd/albaform/main.go
//
// This is the entry point for the albaform CLI.
// Running `albaform` in a directory opens the step-one wizard screen for the
// project rooted there. The `draft` subcommands inspect the saved draft
// without opening the screen.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kingrea/albaform/internal/config"
	"github.com/kingrea/albaform/internal/tui"
)

var projectDir string

var rootCmd = &cobra.Command{
	Use:   "albaform",
	Short: "Fill in a job posting, one step at a time",
	Long:  "albaform opens the job-posting wizard. Step one keeps its draft on disk so an interrupted session picks up where it left off.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if projectDir != "" {
			return nil
		}
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		projectDir = cwd
		return nil
	},
	RunE: runWizard,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Project directory (defaults to the working directory)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWizard(_ *cobra.Command, _ []string) error {
	if err := config.InitDir(projectDir); err != nil {
		return fmt.Errorf("initializing %s directory: %w", config.AppDir, err)
	}

	app, err := tui.NewApp(projectDir)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
