package cv

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTemplateLocatesExactCrop(t *testing.T) {
	haystack := noiseImage(60, 40, 7)
	needle := CropRegion(haystack, image.Rect(17, 9, 25, 15))

	result := FindTemplate(haystack, needle, DefaultMatchConfig())

	require.True(t, result.Found)
	assert.Equal(t, image.Pt(17, 9), result.Location)
	assert.Equal(t, image.Pt(21, 12), result.Center)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestFindTemplateCenterUsesIntegerDivision(t *testing.T) {
	haystack := noiseImage(40, 40, 3)
	needle := CropRegion(haystack, image.Rect(5, 6, 12, 11)) // 7x5

	result := FindTemplate(haystack, needle, DefaultMatchConfig())

	require.True(t, result.Found)
	assert.Equal(t, image.Pt(5+3, 6+2), result.Center)
}

func TestFindTemplateBelowThreshold(t *testing.T) {
	haystack := noiseImage(50, 50, 11)
	needle := noiseImage(8, 8, 12)

	result := FindTemplate(haystack, needle, &MatchConfig{Method: MatchMethodNCC, Threshold: 0.95})

	assert.False(t, result.Found)
	assert.Less(t, result.Confidence, 0.95)
}

func TestFindTemplateThresholdIsInclusive(t *testing.T) {
	haystack := noiseImage(30, 30, 5)
	needle := CropRegion(haystack, image.Rect(4, 4, 10, 10))

	result := FindTemplate(haystack, needle, &MatchConfig{Method: MatchMethodSSD, Threshold: 1.0})

	require.True(t, result.Found)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, image.Pt(4, 4), result.Location)
}

func TestFindTemplateLargerThanScreen(t *testing.T) {
	result := FindTemplate(noiseImage(10, 10, 1), noiseImage(20, 5, 2), DefaultMatchConfig())
	assert.False(t, result.Found)
}

func TestFindTemplateTieKeepsFirstInRowMajorOrder(t *testing.T) {
	haystack := solidImage(60, 40, color.RGBA{200, 200, 200, 255})
	needle := noiseImage(6, 6, 9)
	paste(haystack, needle, image.Pt(30, 5))
	paste(haystack, needle, image.Pt(5, 20))

	result := FindTemplate(haystack, needle, DefaultMatchConfig())

	require.True(t, result.Found)
	assert.Equal(t, image.Pt(30, 5), result.Location)
}

func TestFindTemplateOnSubImageReportsAbsoluteCoordinates(t *testing.T) {
	full := noiseImage(80, 80, 21)
	needle := CropRegion(full, image.Rect(50, 45, 58, 52))
	screen := full.SubImage(image.Rect(40, 40, 80, 80)).(*image.RGBA)

	result := FindTemplate(screen, needle, DefaultMatchConfig())

	require.True(t, result.Found)
	assert.Equal(t, image.Pt(50, 45), result.Location)
}

func TestFindTemplateFlatWindows(t *testing.T) {
	grey := color.RGBA{90, 90, 90, 255}
	haystack := solidImage(20, 20, grey)
	same := solidImage(4, 4, grey)
	other := solidImage(4, 4, color.RGBA{10, 10, 10, 255})

	assert.True(t, FindTemplate(haystack, same, DefaultMatchConfig()).Found)
	assert.False(t, FindTemplate(haystack, other, DefaultMatchConfig()).Found)
}

func TestNormalizeRGBDropsAlphaAndExpandsGray(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, NormalizeRGB(nrgba).RGBAAt(0, 0))

	g := image.NewGray(image.Rect(0, 0, 1, 1))
	g.SetGray(0, 0, color.Gray{Y: 77})
	assert.Equal(t, color.RGBA{77, 77, 77, 255}, NormalizeRGB(g).RGBAAt(0, 0))
}

func TestParseMatchMethod(t *testing.T) {
	m, err := ParseMatchMethod("SSD")
	require.NoError(t, err)
	assert.Equal(t, MatchMethodSSD, m)

	m, err = ParseMatchMethod("")
	require.NoError(t, err)
	assert.Equal(t, MatchMethodNCC, m)

	_, err = ParseMatchMethod("sad")
	assert.Error(t, err)
}

func TestTemplateMatcherGrayTemplateOnColorScreen(t *testing.T) {
	dir := t.TempDir()

	screenGray := image.NewGray(image.Rect(0, 0, 40, 30))
	noise := noiseImage(40, 30, 4)
	for i := range screenGray.Pix {
		screenGray.Pix[i] = noise.Pix[i*4]
	}
	tmpl := screenGray.SubImage(image.Rect(12, 8, 20, 14)).(*image.Gray)
	path := writePNG(t, dir, "button.png", tmpl)

	matcher := NewTemplateMatcher(NewTemplateStore(), MatchMethodNCC)
	result, err := matcher.MatchImage(NormalizeRGB(screenGray), path, 0.9)

	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, image.Pt(12, 8), result.Location)
	assert.Equal(t, image.Pt(16, 11), result.Center)
}

func TestTemplateMatcherMissingAndUnreadableTemplates(t *testing.T) {
	dir := t.TempDir()
	matcher := NewTemplateMatcher(nil, MatchMethodNCC)
	screen := noiseImage(20, 20, 1)

	_, err := matcher.MatchImage(screen, filepath.Join(dir, "missing.png"), 0.8)
	var matchErr *MatchError
	require.ErrorAs(t, err, &matchErr)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))
	_, err = matcher.MatchImage(screen, garbage, 0.8)
	assert.ErrorIs(t, err, ErrTemplateUnreadable)
}

func TestTemplateStoreCachesSuccessfulLoads(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "t.png", noiseImage(4, 4, 2))
	store := NewTemplateStore()

	a, err := store.Load(path)
	require.NoError(t, err)
	b, err := store.Load(path)
	require.NoError(t, err)

	assert.Same(t, a, b)
	stats := store.Stats()
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 1, stats.Hits)
}

func TestDebugMatchOutlinesResult(t *testing.T) {
	frame := solidImage(20, 20, color.RGBA{0, 0, 0, 255})
	result := &MatchResult{Found: true, Location: image.Pt(5, 5), Size: image.Pt(4, 4)}

	out := DebugMatch(frame, result)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(8, 8))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(6, 6))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.RGBAAt(5, 5))
}
