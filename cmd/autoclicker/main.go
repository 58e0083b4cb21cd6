// Package main is the CLI entry point for the autoclicker.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"jordanella.com/autoclicker-go/internal/config"
)

// Version is set via ldflags
var Version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var settingsPath string

	root := &cobra.Command{
		Use:   "autoclicker",
		Short: "Find targets on screen and click them",
		Long: `autoclicker captures the screen at a fixed interval, looks for image
templates or text, and clicks the first target it finds. Pattern mode
replays scripted clicks and key presses from a YAML file instead.

Settings are read from an INI file; flags override them for one run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&settingsPath, "settings", config.DefaultPath, "Settings INI file")

	root.AddCommand(newRunCmd(&settingsPath))
	root.AddCommand(newSettingsCmd(&settingsPath))
	root.AddCommand(newHistoryCmd(&settingsPath))
	root.AddCommand(newDoctorCmd(&settingsPath))

	return root
}
