package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jordanella.com/autoclicker-go/internal/config"
	"jordanella.com/autoclicker-go/internal/cv"
)

func newSettingsCmd(settingsPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved settings",
	}

	cmd.AddCommand(newSettingsShowCmd(settingsPath))
	cmd.AddCommand(newSettingsSaveCmd(settingsPath))
	cmd.AddCommand(newSettingsInitCmd(settingsPath))

	return cmd
}

func newSettingsShowCmd(settingsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.LoadOrDefault(*settingsPath)
			return writeSettings(cmd.OutOrStdout(), *settingsPath, s)
		},
	}
}

func newSettingsSaveCmd(settingsPath *string) *cobra.Command {
	var flags settingsFlags

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Update the saved settings from flags",
		Example: `  autoclicker settings save -m text -t "Accept" --interval 0.5
  autoclicker settings save --safety-zone 0,0,200,40 --safety-zone 1800,0,120,40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.LoadOrDefault(*settingsPath)
			if err := flags.apply(cmd, s); err != nil {
				return err
			}
			if _, err := s.ToOptions(); err != nil {
				return err
			}
			if err := config.SaveToINI(s, *settingsPath); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved settings to %s\n", *settingsPath)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func newSettingsInitCmd(settingsPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(*settingsPath); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", *settingsPath)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}
			if err := config.SaveToINI(config.NewDefaultSettings(), *settingsPath); err != nil {
				return fmt.Errorf("failed to write settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default settings to %s\n", *settingsPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// settingsView is the YAML layout printed by settings show
type settingsView struct {
	File             string   `yaml:"file"`
	Mode             string   `yaml:"mode"`
	Targets          []string `yaml:"targets,flow"`
	Confidence       float64  `yaml:"confidence"`
	Interval         float64  `yaml:"interval"`
	Region           string   `yaml:"region,omitempty"`
	CacheDuration    float64  `yaml:"cache_duration"`
	SafetyZones      string   `yaml:"safety_zones,omitempty"`
	MaxRuntime       float64  `yaml:"max_runtime"`
	SoundFeedback    bool     `yaml:"sound_feedback"`
	SoundFile        string   `yaml:"sound_file,omitempty"`
	DebugScreenshots bool     `yaml:"debug_screenshots"`
	DebugDir         string   `yaml:"debug_dir"`
	OCRPreprocessing bool     `yaml:"ocr_preprocessing"`
	OCRLanguage      string   `yaml:"ocr_language"`
	MatchMethod      string   `yaml:"match_method"`
	PatternFile      string   `yaml:"pattern_file,omitempty"`
	HistoryDB        string   `yaml:"history_db"`
	LogLevel         string   `yaml:"log_level"`
	Hotkeys          struct {
		Start string `yaml:"start"`
		Stop  string `yaml:"stop"`
		Pause string `yaml:"pause"`
	} `yaml:"hotkeys"`
}

func writeSettings(out io.Writer, path string, s *config.Settings) error {
	view := settingsView{
		File:             path,
		Mode:             s.Mode,
		Targets:          s.Targets,
		Confidence:       s.Confidence,
		Interval:         s.Interval,
		CacheDuration:    s.CacheDuration,
		MaxRuntime:       s.MaxRuntime,
		SoundFeedback:    s.SoundFeedback,
		SoundFile:        s.SoundFile,
		DebugScreenshots: s.DebugScreenshots,
		DebugDir:         s.DebugDir,
		OCRPreprocessing: s.OCRPreprocessing,
		OCRLanguage:      s.OCRLanguage,
		MatchMethod:      s.MatchMethod,
		PatternFile:      s.PatternFile,
		HistoryDB:        s.HistoryDB,
		LogLevel:         s.LogLevel,
	}
	if s.Region != nil {
		view.Region = s.Region.String()
	}
	view.SafetyZones = cv.FormatRegionList(s.SafetyZones)
	view.Hotkeys.Start = s.Hotkeys.Start
	view.Hotkeys.Stop = s.Hotkeys.Stop
	view.Hotkeys.Pause = s.Hotkeys.Pause

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return err
	}
	return enc.Close()
}
