package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jordanella.com/autoclicker-go/internal/config"
	"jordanella.com/autoclicker-go/internal/cv"
)

// settingsFlags override persisted settings. Only flags given on the command
// line are applied.
type settingsFlags struct {
	mode        string
	targets     []string
	confidence  float64
	interval    float64
	region      string
	cache       float64
	maxRuntime  float64
	safetyZones []string
	sound       bool
	soundFile   string
	debug       bool
	debugDir    string
	pattern     string
	preprocess  bool
	matchMethod string
	language    string
	logLevel    string
}

func (f *settingsFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.mode, "mode", "m", "", "Detection mode: image, text, mixed or pattern")
	fs.StringArrayVarP(&f.targets, "target", "t", nil, "Target image path or text (repeatable, comma separated)")
	fs.Float64VarP(&f.confidence, "confidence", "c", 0, "Minimum template match score (0-1)")
	fs.Float64VarP(&f.interval, "interval", "i", 0, "Seconds between scans")
	fs.StringVar(&f.region, "region", "", "Restrict scanning to x,y,width,height")
	fs.Float64Var(&f.cache, "cache", 0, "Seconds a captured frame is reused")
	fs.Float64Var(&f.maxRuntime, "max-runtime", 0, "Stop after this many seconds (0 = unlimited)")
	fs.StringArrayVar(&f.safetyZones, "safety-zone", nil, "Never click inside x,y,width,height (repeatable)")
	fs.BoolVar(&f.sound, "sound", false, "Play a sound after each successful click")
	fs.StringVar(&f.soundFile, "sound-file", "", "Sound file for click feedback")
	fs.BoolVar(&f.debug, "debug-screenshots", false, "Save annotated screenshots of matches and misses")
	fs.StringVar(&f.debugDir, "debug-dir", "", "Directory for debug screenshots")
	fs.StringVarP(&f.pattern, "pattern", "p", "", "YAML pattern file (pattern mode)")
	fs.BoolVar(&f.preprocess, "preprocess", false, "Retry OCR on preprocessed variants of the frame")
	fs.StringVar(&f.matchMethod, "match-method", "", "Template match method: ncc or ssd")
	fs.StringVar(&f.language, "ocr-language", "", "Tesseract language")
	fs.StringVar(&f.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
}

func (f *settingsFlags) apply(cmd *cobra.Command, s *config.Settings) error {
	changed := cmd.Flags().Changed

	if changed("mode") {
		s.Mode = f.mode
	}
	if changed("target") {
		s.Targets = f.targets
	}
	if changed("confidence") {
		s.Confidence = f.confidence
	}
	if changed("interval") {
		s.Interval = f.interval
	}
	if changed("region") {
		if f.region == "" {
			s.Region = nil
		} else {
			region, err := cv.ParseRegion(f.region)
			if err != nil {
				return fmt.Errorf("invalid --region: %w", err)
			}
			s.Region = &region
		}
	}
	if changed("cache") {
		s.CacheDuration = f.cache
	}
	if changed("max-runtime") {
		s.MaxRuntime = f.maxRuntime
	}
	if changed("safety-zone") {
		zones := make([]cv.Region, 0, len(f.safetyZones))
		for _, raw := range f.safetyZones {
			zone, err := cv.ParseRegion(raw)
			if err != nil {
				return fmt.Errorf("invalid --safety-zone %q: %w", raw, err)
			}
			zones = append(zones, zone)
		}
		s.SafetyZones = zones
	}
	if changed("sound") {
		s.SoundFeedback = f.sound
	}
	if changed("sound-file") {
		s.SoundFile = f.soundFile
	}
	if changed("debug-screenshots") {
		s.DebugScreenshots = f.debug
	}
	if changed("debug-dir") {
		s.DebugDir = f.debugDir
	}
	if changed("pattern") {
		s.PatternFile = f.pattern
		if !changed("mode") {
			s.Mode = "pattern"
		}
	}
	if changed("preprocess") {
		s.OCRPreprocessing = f.preprocess
	}
	if changed("match-method") {
		s.MatchMethod = f.matchMethod
	}
	if changed("ocr-language") {
		s.OCRLanguage = f.language
	}
	if changed("log-level") {
		s.LogLevel = f.logLevel
	}

	return nil
}
