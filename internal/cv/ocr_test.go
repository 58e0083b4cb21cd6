package cv

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/autoclicker-go/internal/logging"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t50\t50\t20\t96.5\tHello\n" +
	"5\t1\t1\t1\t1\t2\t200\t50\t50\t20\t91\tWorld\n" +
	"5\t1\t1\t1\t1\t3\t260\t50\t10\t20\t30\t \n"

func TestParseTSV(t *testing.T) {
	boxes, err := ParseTSV(strings.NewReader(sampleTSV))
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.Equal(t, TextBox{Text: "Hello", X: 100, Y: 50, W: 50, H: 20, Confidence: 96.5}, boxes[0])
	assert.Equal(t, "World", boxes[1].Text)
}

func TestParseTSVRejectsBadCoordinates(t *testing.T) {
	_, err := ParseTSV(strings.NewReader("5\t1\t1\t1\t1\t1\tx\t50\t50\t20\t90\tHi\n"))
	assert.Error(t, err)
}

func TestFindTextIsCaseInsensitiveAndFirstWins(t *testing.T) {
	boxes := []TextBox{
		{Text: "Submit", X: 0, Y: 0, W: 10, H: 10},
		{Text: "SUBMIT", X: 100, Y: 100, W: 10, H: 10},
	}

	box, ok := FindText(boxes, "submit")
	require.True(t, ok)
	assert.Equal(t, 0, box.X)

	box, ok = FindText(boxes, "MIT")
	require.True(t, ok)
	assert.Equal(t, 0, box.X)

	_, ok = FindText(boxes, "cancel")
	assert.False(t, ok)
}

type fakeDetector struct {
	results [][]TextBox
	errs    []error
	calls   int
	sizes   []image.Point
}

func (d *fakeDetector) DetectText(_ context.Context, img image.Image) ([]TextBox, error) {
	i := d.calls
	d.calls++
	d.sizes = append(d.sizes, img.Bounds().Size())
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i < len(d.results) {
		return d.results[i], nil
	}
	return nil, nil
}

func TestTextMatcherReturnsBoxCenter(t *testing.T) {
	detector := &fakeDetector{results: [][]TextBox{{
		{Text: "Hello", X: 100, Y: 50, W: 50, H: 20},
		{Text: "World", X: 200, Y: 50, W: 50, H: 20},
	}}}
	matcher := NewTextMatcher(detector, logging.NewNop())

	match, err := matcher.MatchText(context.Background(), noiseImage(400, 200, 1), "World")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, image.Pt(225, 60), match.Center)
	assert.Equal(t, "identity", match.Variant)
	assert.Equal(t, 1, detector.calls)
}

func TestTextMatcherNotFound(t *testing.T) {
	detector := &fakeDetector{results: [][]TextBox{{{Text: "Hello", W: 5, H: 5}}}}
	matcher := NewTextMatcher(detector, logging.NewNop())

	match, err := matcher.MatchText(context.Background(), noiseImage(50, 50, 1), "World")

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestTextMatcherTriesVariantsInOrder(t *testing.T) {
	detector := &fakeDetector{
		errs: []error{errors.New("tesseract crashed")},
		results: [][]TextBox{
			nil,
			{{Text: "other", X: 1, Y: 1, W: 2, H: 2}},
			{{Text: "Continue", X: 10, Y: 20, W: 30, H: 10}},
		},
	}
	matcher := NewTextMatcher(detector, logging.NewNop()).WithPreprocessors(DefaultPreprocessors())

	match, err := matcher.MatchText(context.Background(), noiseImage(64, 48, 2), "continue")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "threshold", match.Variant)
	assert.Equal(t, image.Pt(25, 25), match.Center)
	assert.Equal(t, 3, detector.calls)
	for _, size := range detector.sizes {
		assert.Equal(t, image.Pt(64, 48), size)
	}
}

func TestTextMatcherAllVariantsFail(t *testing.T) {
	boom := errors.New("boom")
	detector := &fakeDetector{errs: []error{boom, boom, boom, boom, boom, boom, boom}}
	matcher := NewTextMatcher(detector, logging.NewNop()).WithPreprocessors(DefaultPreprocessors())

	match, err := matcher.MatchText(context.Background(), noiseImage(16, 16, 3), "x")

	assert.Nil(t, match)
	var matchErr *MatchError
	require.ErrorAs(t, err, &matchErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 7, detector.calls)
}

func TestTextMatcherOffsetsSubImageOrigin(t *testing.T) {
	full := noiseImage(300, 300, 5)
	screen := full.SubImage(image.Rect(100, 200, 300, 300))
	detector := &fakeDetector{results: [][]TextBox{{{Text: "OK", X: 10, Y: 10, W: 20, H: 10}}}}
	matcher := NewTextMatcher(detector, logging.NewNop())

	match, err := matcher.MatchText(context.Background(), screen, "ok")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, image.Pt(120, 215), match.Center)
	assert.Equal(t, image.Pt(200, 100), detector.sizes[0])
}

func TestTextMatcherStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	detector := &fakeDetector{}

	_, err := NewTextMatcher(detector, logging.NewNop()).MatchText(ctx, noiseImage(8, 8, 1), "x")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, detector.calls)
}

func TestTextMatcherSkipsFailingPreprocessor(t *testing.T) {
	detector := &fakeDetector{results: [][]TextBox{{{Text: "Ready", X: 0, Y: 0, W: 10, H: 10}}}}
	logger, logs := logging.NewObserved(logging.LogLevelWarn)
	variants := []Preprocessor{
		{Name: "broken", Apply: func(*image.NRGBA) *image.NRGBA { panic("bad kernel") }},
		{Name: "empty", Apply: func(*image.NRGBA) *image.NRGBA { return nil }},
		{Name: "identity", Apply: func(gray *image.NRGBA) *image.NRGBA { return gray }},
	}
	matcher := NewTextMatcher(detector, logger).WithPreprocessors(variants)

	match, err := matcher.MatchText(context.Background(), noiseImage(32, 32, 7), "ready")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "identity", match.Variant)
	assert.Equal(t, 1, detector.calls, "failed variants never reach the detector")
	assert.Len(t, logs.FilterMessage("OCR preprocessing failed").All(), 2)
}

func TestTextMatcherEveryPreprocessorFails(t *testing.T) {
	matcher := NewTextMatcher(&fakeDetector{}, logging.NewNop()).WithPreprocessors([]Preprocessor{
		{Name: "broken", Apply: func(*image.NRGBA) *image.NRGBA { panic("bad kernel") }},
	})

	match, err := matcher.MatchText(context.Background(), noiseImage(8, 8, 8), "x")

	assert.Nil(t, match)
	var matchErr *MatchError
	require.ErrorAs(t, err, &matchErr)
	assert.Contains(t, err.Error(), "bad kernel")
}
