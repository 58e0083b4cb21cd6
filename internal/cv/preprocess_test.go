package cv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func grayImage(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, grayPixel(v))
		}
	}
	return img
}

func TestPreprocessorOrder(t *testing.T) {
	var names []string
	for _, p := range DefaultPreprocessors() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"identity", "blur", "threshold", "adaptive-threshold",
		"morph-close", "contrast", "edge-smooth",
	}, names)
}

func TestPreprocessorsKeepSize(t *testing.T) {
	src := toGrayscale(noiseImage(23, 17, 8))
	for _, p := range DefaultPreprocessors() {
		out := p.Apply(src)
		assert.Equal(t, src.Bounds(), out.Bounds(), p.Name)
	}
}

func TestOtsuThresholdIsBinary(t *testing.T) {
	src := grayImage(10, 10, 40)
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			src.SetNRGBA(x, y, grayPixel(210))
		}
	}

	out := otsuThreshold(src)

	assert.Equal(t, uint8(0), grayAt(out, 0, 0))
	assert.Equal(t, uint8(255), grayAt(out, 9, 9))
}

func TestMorphCloseFillsSinglePixelHole(t *testing.T) {
	src := grayImage(5, 5, 255)
	src.SetNRGBA(2, 2, grayPixel(0))

	out := morphClose(src)

	assert.Equal(t, uint8(255), grayAt(out, 2, 2))
}

func TestMedianFilterRemovesSpeck(t *testing.T) {
	src := grayImage(5, 5, 0)
	src.SetNRGBA(2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := medianFilter(src)

	assert.Equal(t, uint8(0), grayAt(out, 2, 2))
}
