package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/autoclicker-go/internal/clicker"
	"jordanella.com/autoclicker-go/internal/cv"
)

func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromINI(t *testing.T) {
	path := writeINI(t, `[Settings]
mode = mixed
targets = ok.png, Submit ,
confidence = 0.9
interval = 2.5
region = 10,20,300,200
cache_duration = 0
safety_zones = 0,0,50,50;100,100,10,10
max_runtime = 60
sound_feedback = true
debug_screenshots = yes
match_method = ssd
pattern_file = patterns.yaml

[Hotkeys]
pause = F9
`)

	s, err := LoadFromINI(path)
	require.NoError(t, err)

	assert.Equal(t, "mixed", s.Mode)
	assert.Equal(t, []string{"ok.png", "Submit"}, s.Targets)
	assert.Equal(t, 0.9, s.Confidence)
	assert.Equal(t, 2.5, s.Interval)
	require.NotNil(t, s.Region)
	assert.Equal(t, cv.NewRegion(10, 20, 300, 200), *s.Region)
	assert.Zero(t, s.CacheDuration)
	assert.Equal(t, []cv.Region{cv.NewRegion(0, 0, 50, 50), cv.NewRegion(100, 100, 10, 10)}, s.SafetyZones)
	assert.Equal(t, 60.0, s.MaxRuntime)
	assert.True(t, s.SoundFeedback)
	assert.True(t, s.DebugScreenshots)
	assert.Equal(t, "ssd", s.MatchMethod)
	assert.Equal(t, "patterns.yaml", s.PatternFile)

	// Unset keys keep their defaults
	assert.Equal(t, clicker.DefaultDebugDir, s.DebugDir)
	assert.Equal(t, "INFO", s.LogLevel)
	assert.Equal(t, Hotkeys{Start: "F6", Stop: "F7", Pause: "F9"}, s.Hotkeys)
}

func TestLoadFromINIMalformedValuesFallBack(t *testing.T) {
	path := writeINI(t, `[Settings]
confidence = high
interval = soon
region = 1,2,3
safety_zones = 0,0,10,10;oops
`)

	s, err := LoadFromINI(path)
	require.NoError(t, err)

	d := NewDefaultSettings()
	assert.Equal(t, d.Confidence, s.Confidence)
	assert.Equal(t, d.Interval, s.Interval)
	assert.Nil(t, s.Region)
	assert.Empty(t, s.SafetyZones)
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.ini")
	assert.Equal(t, NewDefaultSettings(), LoadOrDefault(missing))

	corrupt := writeINI(t, "[Settings\nmode = text\n")
	assert.Equal(t, NewDefaultSettings(), LoadOrDefault(corrupt))
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	region := cv.NewRegion(5, 5, 100, 80)

	s := NewDefaultSettings()
	s.Mode = "text"
	s.Targets = []string{"Accept", "Continue"}
	s.Confidence = 0.75
	s.Region = &region
	s.SafetyZones = []cv.Region{cv.NewRegion(0, 0, 10, 10), cv.NewRegion(20, 20, 5, 5)}
	s.MaxRuntime = 30
	s.OCRPreprocessing = true
	s.Hotkeys.Stop = "Escape"

	require.NoError(t, SaveToINI(s, path))

	loaded, err := LoadFromINI(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestToOptions(t *testing.T) {
	s := NewDefaultSettings()
	s.Mode = " Text "
	s.Targets = []string{"OK, Cancel"}
	s.Interval = 0.25
	s.MaxRuntime = 90
	s.MatchMethod = "ssd"

	opts, err := s.ToOptions()
	require.NoError(t, err)

	assert.Equal(t, clicker.ModeText, opts.Mode)
	assert.Equal(t, []string{"OK", "Cancel"}, opts.Targets)
	assert.Equal(t, 250*time.Millisecond, opts.Interval)
	assert.Equal(t, 500*time.Millisecond, opts.CacheDuration)
	assert.Equal(t, 90*time.Second, opts.MaxRuntime)
	assert.Equal(t, cv.MatchMethodSSD, opts.MatchMethod)
	require.NoError(t, opts.Validate())
}

func TestToOptionsRejectsUnknownMatchMethod(t *testing.T) {
	s := NewDefaultSettings()
	s.MatchMethod = "sift"

	_, err := s.ToOptions()

	var cfgErr *clicker.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "match_method", cfgErr.Field)
}
