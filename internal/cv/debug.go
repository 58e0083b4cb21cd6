package cv

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// DefaultDuplicateDistance is the perceptual hash distance at or below which
// two no-match frames count as the same screen
const DefaultDuplicateDistance = 4

// DebugRecorder saves frames for offline inspection
type DebugRecorder struct {
	dir         string
	maxDistance int
	lastHash    *goimagehash.ImageHash
	seq         int
	now         func() time.Time
	mu          sync.Mutex
}

// NewDebugRecorder creates dir if needed
func NewDebugRecorder(dir string) (*DebugRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	return &DebugRecorder{
		dir:         dir,
		maxDistance: DefaultDuplicateDistance,
		now:         time.Now,
	}, nil
}

// Dir returns the output directory
func (d *DebugRecorder) Dir() string {
	return d.dir
}

// SaveNoMatch writes a frame where nothing matched. Consecutive frames that
// look the same are skipped; the returned path is empty in that case.
func (d *DebugRecorder) SaveNoMatch(frame image.Image) (string, error) {
	hash, err := goimagehash.PerceptionHash(frame)
	if err != nil {
		return "", fmt.Errorf("failed to hash frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastHash != nil {
		distance, err := hash.Distance(d.lastHash)
		if err == nil && distance <= d.maxDistance {
			return "", nil
		}
	}
	d.lastHash = hash

	return d.save("nomatch", frame)
}

// SaveMatch writes the frame with the matched template outlined
func (d *DebugRecorder) SaveMatch(frame *image.RGBA, result *MatchResult) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A match means the screen changed; the next no-match frame is always kept
	d.lastHash = nil

	return d.save("match", DebugMatch(frame, result))
}

func (d *DebugRecorder) save(kind string, img image.Image) (string, error) {
	d.seq++
	name := fmt.Sprintf("%s_%s_%04d.png", kind, d.now().Format("20060102_150405"), d.seq)
	path := filepath.Join(d.dir, name)

	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save debug frame: %w", err)
	}
	return path, nil
}
