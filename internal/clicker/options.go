package clicker

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jordanella.com/autoclicker-go/internal/cv"
)

// Mode selects what the scan loop looks for each cycle
type Mode string

const (
	ModeImage   Mode = "image"
	ModeText    Mode = "text"
	ModeMixed   Mode = "mixed"
	ModePattern Mode = "pattern"
)

// ParseMode accepts the mode names case-insensitively
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeImage, ModeText, ModeMixed, ModePattern:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected image, text, mixed or pattern)", s)
	}
}

// Default option values
const (
	DefaultConfidence = 0.8
	DefaultInterval   = time.Second
	DefaultDebugDir   = "debug_screenshots"
)

// Options configures a Bot
type Options struct {
	Mode       Mode
	Targets    []string // image paths or text strings
	Confidence float64
	Interval   time.Duration

	Region        *cv.Region // nil = full screen
	CacheDuration time.Duration
	SafetyZones   []cv.Region
	MaxRuntime    time.Duration // 0 = unlimited

	SoundFeedback bool
	SoundFile     string

	DebugScreenshots bool
	DebugDir         string

	OCRPreprocessing bool
	MatchMethod      cv.MatchMethod

	PatternFile string
}

// DefaultOptions returns options with every default applied
func DefaultOptions() Options {
	return Options{
		Mode:          ModeImage,
		Confidence:    DefaultConfidence,
		Interval:      DefaultInterval,
		CacheDuration: cv.DefaultCacheDuration,
		DebugDir:      DefaultDebugDir,
		MatchMethod:   cv.MatchMethodNCC,
	}
}

// Validate checks every option and returns the first violation as a *ConfigurationError
func (o *Options) Validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return configErrorf("mode", "%v", err)
	}
	if math.IsNaN(o.Confidence) || o.Confidence < 0 || o.Confidence > 1 {
		return configErrorf("confidence", "%v is outside [0, 1]", o.Confidence)
	}
	if o.Interval <= 0 {
		return configErrorf("interval", "%v must be greater than 0", o.Interval)
	}
	if o.CacheDuration < 0 {
		return configErrorf("cache_duration", "%v must not be negative", o.CacheDuration)
	}
	if o.MaxRuntime < 0 {
		return configErrorf("max_runtime", "%v must be greater than 0 when set", o.MaxRuntime)
	}
	if o.Region != nil {
		if err := o.Region.Validate(); err != nil {
			return configErrorf("region", "%v", err)
		}
	}
	for i, zone := range o.SafetyZones {
		if err := zone.Validate(); err != nil {
			return configErrorf("safety_zones", "zone %d: %v", i+1, err)
		}
	}

	if o.Mode == ModePattern {
		if o.PatternFile == "" {
			return configErrorf("pattern_file", "pattern mode needs a pattern file")
		}
		return nil
	}
	if len(SplitTargets(o.Targets)) == 0 {
		return configErrorf("targets", "at least one target is required")
	}
	return nil
}

// SplitTargets splits every entry on commas and drops empty names
func SplitTargets(targets []string) []string {
	var out []string
	for _, t := range targets {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
}

// IsImageTarget reports whether target names an existing image file
func IsImageTarget(target string) bool {
	if !imageExtensions[strings.ToLower(filepath.Ext(target))] {
		return false
	}
	_, err := os.Stat(target)
	return err == nil
}

// ClassifyTargets separates image files from text targets, keeping the order of each
func ClassifyTargets(targets []string) (images, texts []string) {
	for _, t := range targets {
		if IsImageTarget(t) {
			images = append(images, t)
		} else {
			texts = append(texts, t)
		}
	}
	return images, texts
}
