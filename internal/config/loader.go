package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"jordanella.com/autoclicker-go/internal/clicker"
	"jordanella.com/autoclicker-go/internal/cv"
)

// DefaultPath is the settings file used when none is given
const DefaultPath = "autoclicker_settings.ini"

// Hotkeys are persisted for front-ends that bind global keys
type Hotkeys struct {
	Start string
	Stop  string
	Pause string
}

// Settings is the persisted configuration record
type Settings struct {
	Mode          string
	Targets       []string
	Confidence    float64
	Interval      float64 // seconds
	Region        *cv.Region
	CacheDuration float64 // seconds
	SafetyZones   []cv.Region
	MaxRuntime    float64 // seconds, 0 = unlimited

	SoundFeedback bool
	SoundFile     string

	DebugScreenshots bool
	DebugDir         string

	OCRPreprocessing bool
	OCRLanguage      string
	MatchMethod      string
	PatternFile      string

	XdotoolPath   string
	TesseractPath string
	HistoryDB     string
	LogLevel      string

	Hotkeys Hotkeys
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	return &Settings{
		Mode:          string(clicker.ModeImage),
		Confidence:    clicker.DefaultConfidence,
		Interval:      clicker.DefaultInterval.Seconds(),
		CacheDuration: cv.DefaultCacheDuration.Seconds(),
		DebugDir:      clicker.DefaultDebugDir,
		OCRLanguage:   "eng",
		MatchMethod:   cv.MatchMethodNCC.String(),
		TesseractPath: "tesseract",
		HistoryDB:     "autoclicker_history.db",
		LogLevel:      "INFO",
		Hotkeys: Hotkeys{
			Start: "F6",
			Stop:  "F7",
			Pause: "F8",
		},
	}
}

// LoadFromINI loads settings from an INI file. Keys that are missing or
// malformed keep their default value.
func LoadFromINI(path string) (*Settings, error) {
	// ';' separates safety zones, so it cannot start a comment
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file: %w", err)
	}

	d := NewDefaultSettings()
	s := &Settings{}
	section := cfg.Section("Settings")

	s.Mode = section.Key("mode").MustString(d.Mode)
	s.Targets = splitList(section.Key("targets").String(), ",")
	s.Confidence = section.Key("confidence").MustFloat64(d.Confidence)
	s.Interval = section.Key("interval").MustFloat64(d.Interval)
	s.CacheDuration = section.Key("cache_duration").MustFloat64(d.CacheDuration)
	s.MaxRuntime = section.Key("max_runtime").MustFloat64(0)

	// Region and zones are dropped as a whole when malformed
	if raw := strings.TrimSpace(section.Key("region").String()); raw != "" {
		if region, err := cv.ParseRegion(raw); err == nil {
			s.Region = &region
		}
	}
	if zones, err := cv.ParseRegionList(section.Key("safety_zones").String()); err == nil {
		s.SafetyZones = zones
	}

	// Feedback
	s.SoundFeedback = section.Key("sound_feedback").MustBool(false)
	s.SoundFile = section.Key("sound_file").MustString("")

	// Debug
	s.DebugScreenshots = section.Key("debug_screenshots").MustBool(false)
	s.DebugDir = section.Key("debug_dir").MustString(d.DebugDir)

	// Matching
	s.OCRPreprocessing = section.Key("ocr_preprocessing").MustBool(false)
	s.OCRLanguage = section.Key("ocr_language").MustString(d.OCRLanguage)
	s.MatchMethod = section.Key("match_method").MustString(d.MatchMethod)
	s.PatternFile = section.Key("pattern_file").MustString("")

	// Tools and logging
	s.XdotoolPath = section.Key("xdotool_path").MustString("")
	s.TesseractPath = section.Key("tesseract_path").MustString(d.TesseractPath)
	s.HistoryDB = section.Key("history_db").MustString(d.HistoryDB)
	s.LogLevel = section.Key("log_level").MustString(d.LogLevel)

	hotkeys := cfg.Section("Hotkeys")
	s.Hotkeys.Start = hotkeys.Key("start").MustString(d.Hotkeys.Start)
	s.Hotkeys.Stop = hotkeys.Key("stop").MustString(d.Hotkeys.Stop)
	s.Hotkeys.Pause = hotkeys.Key("pause").MustString(d.Hotkeys.Pause)

	return s, nil
}

// LoadOrDefault loads path, falling back to defaults when the file is
// missing or unreadable
func LoadOrDefault(path string) *Settings {
	s, err := LoadFromINI(path)
	if err != nil {
		return NewDefaultSettings()
	}
	return s
}

// SaveToINI saves settings to an INI file
func SaveToINI(s *Settings, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("Settings")

	section.Key("mode").SetValue(s.Mode)
	section.Key("targets").SetValue(strings.Join(s.Targets, ","))
	section.Key("confidence").SetValue(formatFloat(s.Confidence))
	section.Key("interval").SetValue(formatFloat(s.Interval))
	section.Key("cache_duration").SetValue(formatFloat(s.CacheDuration))
	section.Key("max_runtime").SetValue(formatFloat(s.MaxRuntime))

	region := ""
	if s.Region != nil {
		region = s.Region.String()
	}
	section.Key("region").SetValue(region)
	section.Key("safety_zones").SetValue(cv.FormatRegionList(s.SafetyZones))

	// Feedback
	section.Key("sound_feedback").SetValue(fmt.Sprintf("%t", s.SoundFeedback))
	section.Key("sound_file").SetValue(s.SoundFile)

	// Debug
	section.Key("debug_screenshots").SetValue(fmt.Sprintf("%t", s.DebugScreenshots))
	section.Key("debug_dir").SetValue(s.DebugDir)

	// Matching
	section.Key("ocr_preprocessing").SetValue(fmt.Sprintf("%t", s.OCRPreprocessing))
	section.Key("ocr_language").SetValue(s.OCRLanguage)
	section.Key("match_method").SetValue(s.MatchMethod)
	section.Key("pattern_file").SetValue(s.PatternFile)

	// Tools and logging
	section.Key("xdotool_path").SetValue(s.XdotoolPath)
	section.Key("tesseract_path").SetValue(s.TesseractPath)
	section.Key("history_db").SetValue(s.HistoryDB)
	section.Key("log_level").SetValue(s.LogLevel)

	hotkeys := cfg.Section("Hotkeys")
	hotkeys.Key("start").SetValue(s.Hotkeys.Start)
	hotkeys.Key("stop").SetValue(s.Hotkeys.Stop)
	hotkeys.Key("pause").SetValue(s.Hotkeys.Pause)

	return cfg.SaveTo(path)
}

// ToOptions converts the settings into scan loop options. Values are not
// validated here; clicker.New does that.
func (s *Settings) ToOptions() (clicker.Options, error) {
	method, err := cv.ParseMatchMethod(s.MatchMethod)
	if err != nil {
		return clicker.Options{}, &clicker.ConfigurationError{Field: "match_method", Reason: err.Error()}
	}

	mode := clicker.Mode(strings.ToLower(strings.TrimSpace(s.Mode)))

	return clicker.Options{
		Mode:             mode,
		Targets:          clicker.SplitTargets(s.Targets),
		Confidence:       s.Confidence,
		Interval:         seconds(s.Interval),
		Region:           s.Region,
		CacheDuration:    seconds(s.CacheDuration),
		SafetyZones:      s.SafetyZones,
		MaxRuntime:       seconds(s.MaxRuntime),
		SoundFeedback:    s.SoundFeedback,
		SoundFile:        s.SoundFile,
		DebugScreenshots: s.DebugScreenshots,
		DebugDir:         s.DebugDir,
		OCRPreprocessing: s.OCRPreprocessing,
		MatchMethod:      method,
		PatternFile:      s.PatternFile,
	}, nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
