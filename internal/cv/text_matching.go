package cv

import (
	"context"
	"errors"
	"fmt"
	"image"

	"jordanella.com/autoclicker-go/internal/logging"
)

// TextMatch is the first box containing the target text
type TextMatch struct {
	Box     TextBox     // absolute screen coordinates
	Center  image.Point // Box centre
	Variant string      // preprocessing variant that produced the match
}

// TextMatcher locates text on screen frames through a TextDetector
type TextMatcher struct {
	detector TextDetector
	variants []Preprocessor
	logger   *logging.Logger
}

// NewTextMatcher creates a matcher that runs the detector on the grayscale
// frame only. Use WithPreprocessors to enable fallback variants.
func NewTextMatcher(detector TextDetector, logger *logging.Logger) *TextMatcher {
	return &TextMatcher{
		detector: detector,
		variants: DefaultPreprocessors()[:1],
		logger:   logger,
	}
}

// WithPreprocessors sets the ordered variants tried until one matches
func (m *TextMatcher) WithPreprocessors(variants []Preprocessor) *TextMatcher {
	if len(variants) > 0 {
		m.variants = variants
	}
	return m
}

// MatchText returns the centre of the first box whose text contains target,
// or nil when no variant finds it. An error is returned only when every
// variant failed to run.
func (m *TextMatcher) MatchText(ctx context.Context, screen image.Image, target string) (*TextMatch, error) {
	origin := screen.Bounds().Min
	grayFrame := toGrayscale(screen)

	var errs []error
	for _, variant := range m.variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		variantFrame, err := variant.run(grayFrame)
		if err != nil {
			m.logger.WarnWithContext("OCR preprocessing failed", map[string]interface{}{
				"variant": variant.Name,
				"error":   err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", variant.Name, err))
			continue
		}

		boxes, err := m.detector.DetectText(ctx, variantFrame)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.WarnWithContext("OCR variant failed", map[string]interface{}{
				"variant": variant.Name,
				"error":   err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", variant.Name, err))
			continue
		}

		box, ok := FindText(boxes, target)
		if !ok {
			continue
		}

		box.X += origin.X
		box.Y += origin.Y
		return &TextMatch{
			Box:     box,
			Center:  box.Center(),
			Variant: variant.Name,
		}, nil
	}

	if len(errs) == len(m.variants) {
		return nil, &MatchError{Target: target, Err: errors.Join(errs...)}
	}
	return nil, nil
}
