package cv

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
)

// MatchResult contains template matching results
type MatchResult struct {
	Found      bool
	Location   image.Point // top-left of the best window
	Center     image.Point // Location + (w/2, h/2)
	Size       image.Point // template size
	Confidence float64
}

// MatchMethod defines template matching algorithm
type MatchMethod int

const (
	// MatchMethodNCC - zero-mean normalized cross-correlation, score in [-1, 1]
	MatchMethodNCC MatchMethod = iota
	// MatchMethodSSD - sum of squared differences mapped to [0, 1]
	MatchMethodSSD
)

func (m MatchMethod) String() string {
	switch m {
	case MatchMethodSSD:
		return "ssd"
	default:
		return "ncc"
	}
}

// ParseMatchMethod parses "ncc" or "ssd"
func ParseMatchMethod(s string) (MatchMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ncc":
		return MatchMethodNCC, nil
	case "ssd":
		return MatchMethodSSD, nil
	default:
		return MatchMethodNCC, fmt.Errorf("unknown match method %q (available: ncc, ssd)", s)
	}
}

// MatchConfig configures template matching
type MatchConfig struct {
	Method       MatchMethod
	Threshold    float64          // inclusive
	SearchRegion *image.Rectangle // Optional: limit search area
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Method:    MatchMethodNCC,
		Threshold: 0.8,
	}
}

// FindTemplate slides needle over every offset of haystack and returns the
// best scoring window. Ties keep the first maximum in row-major order.
// Found is set when the best score reaches the threshold.
func FindTemplate(haystack, needle *image.RGBA, config *MatchConfig) *MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}

	needleBounds := needle.Bounds()
	needleWidth := needleBounds.Dx()
	needleHeight := needleBounds.Dy()
	size := image.Point{X: needleWidth, Y: needleHeight}

	if needleWidth == 0 || needleHeight == 0 {
		return &MatchResult{Size: size}
	}

	searchBounds := haystack.Bounds()
	if config.SearchRegion != nil {
		searchBounds = config.SearchRegion.Intersect(searchBounds)
	}

	maxY := searchBounds.Max.Y - needleHeight
	maxX := searchBounds.Max.X - needleWidth
	if searchBounds.Empty() || maxY < searchBounds.Min.Y || maxX < searchBounds.Min.X {
		// Template doesn't fit in search region
		return &MatchResult{Size: size}
	}

	var score func(x, y int) float64
	switch config.Method {
	case MatchMethodSSD:
		score = func(x, y int) float64 {
			return matchSSD(haystack, needle, x, y, needleWidth, needleHeight)
		}
	default:
		tmpl := newNCCTemplate(needle)
		score = func(x, y int) float64 {
			return tmpl.score(haystack, x, y)
		}
	}

	bestScore := math.Inf(-1)
	bestLocation := searchBounds.Min

	for y := searchBounds.Min.Y; y <= maxY; y++ {
		for x := searchBounds.Min.X; x <= maxX; x++ {
			s := score(x, y)
			if s > bestScore {
				bestScore = s
				bestLocation = image.Point{X: x, Y: y}
			}
		}
	}

	return &MatchResult{
		Found:      bestScore >= config.Threshold,
		Location:   bestLocation,
		Center:     bestLocation.Add(image.Point{X: needleWidth / 2, Y: needleHeight / 2}),
		Size:       size,
		Confidence: bestScore,
	}
}

// nccTemplate holds the mean-subtracted template so each window costs one pass
type nccTemplate struct {
	width, height int
	centered      []float64 // t - mean(t) per channel, row-major RGB
	mean          [3]float64
	sumSquares    float64
}

func newNCCTemplate(needle *image.RGBA) *nccTemplate {
	b := needle.Bounds()
	w, h := b.Dx(), b.Dy()
	n := float64(w * h)

	t := &nccTemplate{
		width:    w,
		height:   h,
		centered: make([]float64, 0, w*h*3),
	}

	var sums [3]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := needle.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				sums[c] += float64(needle.Pix[idx+c])
			}
		}
	}
	for c := 0; c < 3; c++ {
		t.mean[c] = sums[c] / n
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := needle.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(needle.Pix[idx+c]) - t.mean[c]
				t.centered = append(t.centered, v)
				t.sumSquares += v * v
			}
		}
	}

	return t
}

// score computes the correlation coefficient of the window at (x, y)
func (t *nccTemplate) score(haystack *image.RGBA, x, y int) float64 {
	n := float64(t.width * t.height)

	var sums [3]float64
	var sumSquares, cross float64
	k := 0
	for ny := 0; ny < t.height; ny++ {
		idx := haystack.PixOffset(x, y+ny)
		for nx := 0; nx < t.width; nx++ {
			for c := 0; c < 3; c++ {
				v := float64(haystack.Pix[idx+c])
				sums[c] += v
				sumSquares += v * v
				cross += v * t.centered[k]
				k++
			}
			idx += 4
		}
	}

	variance := sumSquares
	for c := 0; c < 3; c++ {
		variance -= sums[c] * sums[c] / n
	}

	const eps = 1e-9
	if t.sumSquares < eps || variance < eps {
		// A flat template only matches an identical flat window
		if t.sumSquares < eps && variance < eps {
			for c := 0; c < 3; c++ {
				if math.Abs(sums[c]/n-t.mean[c]) > 0.5 {
					return 0
				}
			}
			return 1
		}
		return 0
	}

	r := cross / math.Sqrt(t.sumSquares*variance)
	return math.Max(-1, math.Min(1, r))
}

// matchSSD - Sum of Squared Differences (balanced)
func matchSSD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var ssd uint64
	nb := needle.Bounds()

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := haystack.PixOffset(x+nx, y+ny)
			nIdx := needle.PixOffset(nb.Min.X+nx, nb.Min.Y+ny)

			dr := int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])
			dg := int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])
			db := int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])

			ssd += uint64(dr*dr + dg*dg + db*db)
		}
	}

	// Normalize to 0-1
	maxSSD := float64(width * height * 3 * 255 * 255)
	return 1.0 - (float64(ssd) / maxSSD)
}

// NormalizeRGB converts any image into an opaque 8-bit RGBA image with the
// same bounds. Gray expands to three equal channels and alpha is dropped.
func NormalizeRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)

	switch src := img.(type) {
	case *image.RGBA:
		copyOpaque(out, src.Pix, bounds, src.PixOffset)
	case *image.NRGBA:
		copyOpaque(out, src.Pix, bounds, src.PixOffset)
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
			}
		}
	}

	return out
}

func copyOpaque(dst *image.RGBA, pix []uint8, bounds image.Rectangle, offset func(x, y int) int) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		si := offset(bounds.Min.X, y)
		di := dst.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Pix[di] = pix[si]
			dst.Pix[di+1] = pix[si+1]
			dst.Pix[di+2] = pix[si+2]
			dst.Pix[di+3] = 255
			si += 4
			di += 4
		}
	}
}

// CropRegion extracts a rectangular region into a new image anchored at (0,0)
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)
	return cropped
}

// DebugMatch returns a copy of haystack with the match outlined
func DebugMatch(haystack *image.RGBA, result *MatchResult) *image.RGBA {
	debug := image.NewRGBA(haystack.Bounds())
	draw.Draw(debug, debug.Bounds(), haystack, haystack.Bounds().Min, draw.Src)

	if result == nil || !result.Found {
		return debug
	}

	rect := image.Rectangle{
		Min: result.Location,
		Max: result.Location.Add(result.Size),
	}.Intersect(debug.Bounds())

	drawRect(debug, rect, color.RGBA{255, 0, 0, 255})

	return debug
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	if rect.Empty() {
		return
	}
	// Top and bottom
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, col)
		img.SetRGBA(x, rect.Max.Y-1, col)
	}
	// Left and right
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, col)
		img.SetRGBA(rect.Max.X-1, y, col)
	}
}
