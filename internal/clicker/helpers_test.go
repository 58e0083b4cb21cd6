package clicker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/events"
)

// fakeInjector records input calls. after runs once per call, outside the lock.
type fakeInjector struct {
	mu       sync.Mutex
	calls    []string
	clickErr error
	after    func(call string)
}

func (f *fakeInjector) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	after := f.after
	f.mu.Unlock()
	if after != nil {
		after(call)
	}
}

func (f *fakeInjector) MoveCursor(_ context.Context, x, y int) error {
	f.record(fmt.Sprintf("move %d,%d", x, y))
	return nil
}

func (f *fakeInjector) Click(context.Context) error {
	f.record("click")
	return f.clickErr
}

func (f *fakeInjector) PressKey(_ context.Context, key string) error {
	f.record("key " + key)
	return nil
}

func (f *fakeInjector) PressCombo(_ context.Context, keys []string) error {
	f.record("combo " + strings.Join(keys, "+"))
	return nil
}

func (f *fakeInjector) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeCapturer struct {
	frame *image.RGBA
	err   error
}

func (f *fakeCapturer) Name() string { return "fake" }

func (f *fakeCapturer) CaptureFrame() (*image.RGBA, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.frame, nil
}

// fakeDetector returns boxes for every image. delay and onDetect run outside
// the lock; onDetect gets the 1-based call number.
type fakeDetector struct {
	mu       sync.Mutex
	boxes    []cv.TextBox
	calls    int
	delay    time.Duration
	onDetect func(call int)
}

func (f *fakeDetector) DetectText(context.Context, image.Image) ([]cv.TextBox, error) {
	f.mu.Lock()
	f.calls++
	call, boxes := f.calls, f.boxes
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.onDetect != nil {
		f.onDetect(call)
	}
	return boxes, nil
}

func (f *fakeDetector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePlayer struct {
	played chan string
	err    error
}

func (f *fakePlayer) Play(_ context.Context, path string) error {
	f.played <- path
	return f.err
}

// noiseImage returns a deterministic textured RGBA image
func noiseImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

// templateFrom saves the rect of frame as a PNG template and returns its path
func templateFrom(t *testing.T, frame *image.RGBA, rect image.Rectangle) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.png")
	require.NoError(t, imaging.Save(imaging.Crop(frame, rect), path))
	return path
}

// eventRecorder collects every event published on a bus
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(bus events.EventBus) *eventRecorder {
	r := &eventRecorder{}
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, func(e events.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
		})
	}
	return r
}

func (r *eventRecorder) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func (r *eventRecorder) Last(eventType events.EventType) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

var errInjected = errors.New("injected failure")
