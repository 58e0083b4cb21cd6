package cv

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

// DefaultCacheDuration is how long a captured frame is reused
const DefaultCacheDuration = 500 * time.Millisecond

// Service is the screen capture cache. It owns the single cached frame and
// applies the optional search region to every frame it hands out.
type Service struct {
	capturer Capturer
	region   *Region

	// Frame caching
	cachedFrame     *image.RGBA
	cachedFrameTime time.Time
	cacheDuration   time.Duration

	now func() time.Time
	mu  sync.Mutex
}

// NewService creates a capture service with the default cache duration
func NewService(capturer Capturer) *Service {
	return NewServiceWithCache(capturer, DefaultCacheDuration)
}

// NewServiceWithCache creates a capture service with custom cache duration.
// A duration of zero disables reuse.
func NewServiceWithCache(capturer Capturer, cacheDuration time.Duration) *Service {
	return &Service{
		capturer:      capturer,
		cacheDuration: cacheDuration,
		now:           time.Now,
	}
}

// WithRegion restricts every returned frame to the region
func (s *Service) WithRegion(region *Region) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region = region
	return s
}

// WithClock replaces the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Capture returns the cached frame when it is younger than the cache
// duration, otherwise captures a fresh one.
func (s *Service) Capture() (*image.RGBA, error) {
	return s.CaptureFrame(true)
}

// CaptureFrame captures the screen with optional caching
func (s *Service) CaptureFrame(useCache bool) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if useCache && s.cachedFrame != nil && now.Sub(s.cachedFrameTime) < s.cacheDuration {
		return s.crop(s.cachedFrame)
	}

	frame, err := s.capturer.CaptureFrame()
	if err != nil {
		var captureErr *CaptureError
		if errors.As(err, &captureErr) {
			return nil, err
		}
		return nil, &CaptureError{Err: err}
	}

	// Frame and timestamp are replaced together
	s.cachedFrame = frame
	s.cachedFrameTime = now

	return s.crop(frame)
}

// InvalidateCache forces next capture to get fresh frame
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedFrame = nil
	s.cachedFrameTime = time.Time{}
}

// crop applies the region as a sub-image so coordinates stay absolute
func (s *Service) crop(frame *image.RGBA) (*image.RGBA, error) {
	if s.region == nil {
		return frame, nil
	}

	rect := s.region.ToImageRectangle().Intersect(frame.Bounds())
	if rect.Empty() {
		return nil, &CaptureError{
			Err: fmt.Errorf("region %s lies outside the captured screen %v", s.region, frame.Bounds()),
		}
	}
	return frame.SubImage(rect).(*image.RGBA), nil
}
