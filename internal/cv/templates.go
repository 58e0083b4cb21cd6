package cv

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

// TemplateStats tracks cache performance
type TemplateStats struct {
	Hits     int64 // Cache hits
	Misses   int64 // Had to load from disk
	Failures int64 // Missing or undecodable files
}

// TemplateStore lazily loads template images and keeps them for the life of a run.
// Failed loads are not cached, so a template that appears later is picked up.
type TemplateStore struct {
	images map[string]*image.RGBA
	mu     sync.RWMutex
	stats  TemplateStats
}

// NewTemplateStore creates an empty store
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		images: make(map[string]*image.RGBA),
	}
}

// Load returns the template at path as an opaque RGBA image anchored at (0,0).
// Errors wrap ErrTemplateNotFound or ErrTemplateUnreadable.
func (ts *TemplateStore) Load(path string) (*image.RGBA, error) {
	ts.mu.RLock()
	cached, ok := ts.images[path]
	ts.mu.RUnlock()
	if ok {
		ts.mu.Lock()
		ts.stats.Hits++
		ts.mu.Unlock()
		return cached, nil
	}

	img, err := loadTemplateImage(path)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err != nil {
		ts.stats.Failures++
		return nil, err
	}
	ts.stats.Misses++
	ts.images[path] = img
	return img, nil
}

// Stats returns a copy of the cache counters
func (ts *TemplateStore) Stats() TemplateStats {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.stats
}

func loadTemplateImage(path string) (*image.RGBA, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnreadable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrTemplateUnreadable, path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnreadable, path, err)
	}

	rgba := NormalizeRGB(img)
	if rgba.Bounds().Min != (image.Point{}) {
		rgba = CropRegion(rgba, rgba.Bounds())
	}
	return rgba, nil
}

// TemplateMatcher finds template files on screen frames
type TemplateMatcher struct {
	store  *TemplateStore
	method MatchMethod
}

// NewTemplateMatcher creates a matcher backed by store
func NewTemplateMatcher(store *TemplateStore, method MatchMethod) *TemplateMatcher {
	if store == nil {
		store = NewTemplateStore()
	}
	return &TemplateMatcher{
		store:  store,
		method: method,
	}
}

// MatchImage searches screen for the template at templatePath. A missing or
// unreadable template yields a *MatchError; otherwise the best window is
// returned with Found set when its score reaches confidence.
func (m *TemplateMatcher) MatchImage(screen *image.RGBA, templatePath string, confidence float64) (*MatchResult, error) {
	needle, err := m.store.Load(templatePath)
	if err != nil {
		return nil, &MatchError{Target: templatePath, Err: err}
	}

	return FindTemplate(screen, needle, &MatchConfig{
		Method:    m.method,
		Threshold: confidence,
	}), nil
}
