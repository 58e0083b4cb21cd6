package cv

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"
)

// Preprocessor is one OCR input variant. Apply receives a grayscale image
// anchored at (0,0) and returns a new image of the same size.
type Preprocessor struct {
	Name  string
	Apply func(gray *image.NRGBA) *image.NRGBA
}

// run applies the variant, turning a panic or an empty result into an error
func (p Preprocessor) run(gray *image.NRGBA) (out *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("preprocessing panicked: %v", r)
		}
	}()

	out = p.Apply(gray)
	if out == nil || out.Bounds().Empty() {
		return nil, errors.New("preprocessing produced no image")
	}
	return out, nil
}

// DefaultPreprocessors lists the OCR variants in the order they are tried
func DefaultPreprocessors() []Preprocessor {
	return []Preprocessor{
		{Name: "identity", Apply: func(gray *image.NRGBA) *image.NRGBA { return gray }},
		{Name: "blur", Apply: func(gray *image.NRGBA) *image.NRGBA { return imaging.Blur(gray, 1.0) }},
		{Name: "threshold", Apply: otsuThreshold},
		{Name: "adaptive-threshold", Apply: adaptiveThreshold},
		{Name: "morph-close", Apply: morphClose},
		{Name: "contrast", Apply: func(gray *image.NRGBA) *image.NRGBA { return imaging.AdjustContrast(gray, 40) }},
		{Name: "edge-smooth", Apply: medianFilter},
	}
}

// toGrayscale converts an image to an 8-bit gray NRGBA anchored at (0,0)
func toGrayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

func grayAt(img *image.NRGBA, x, y int) uint8 {
	return img.Pix[img.PixOffset(x, y)]
}

func grayPixel(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

// otsuThreshold binarises at the level that maximises between-class variance
func otsuThreshold(src *image.NRGBA) *image.NRGBA {
	var hist [256]int
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[grayAt(src, x, y)]++
		}
	}

	total := b.Dx() * b.Dy()
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var sumB, best float64
	var weightB int
	level := 127
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = t
		}
	}

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		if int(c.R) > level {
			return grayPixel(255)
		}
		return grayPixel(0)
	})
}

// adaptiveThreshold compares each pixel with its Gaussian-weighted neighbourhood mean
func adaptiveThreshold(src *image.NRGBA) *image.NRGBA {
	const offset = 2
	mean := imaging.Blur(src, 3.0)

	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := grayPixel(0)
			if int(grayAt(src, x, y)) > int(grayAt(mean, x, y))-offset {
				v = grayPixel(255)
			}
			out.SetNRGBA(x, y, v)
		}
	}
	return out
}

// morphClose is a 3x3 dilation followed by a 3x3 erosion
func morphClose(src *image.NRGBA) *image.NRGBA {
	dilated := neighbourhood(src, func(values []uint8) uint8 {
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
	return neighbourhood(dilated, func(values []uint8) uint8 {
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// medianFilter smooths noise while keeping glyph edges
func medianFilter(src *image.NRGBA) *image.NRGBA {
	return neighbourhood(src, func(values []uint8) uint8 {
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		return values[len(values)/2]
	})
}

// neighbourhood applies reduce to the 3x3 window around every pixel, clamping at edges
func neighbourhood(src *image.NRGBA, reduce func(values []uint8) uint8) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	values := make([]uint8, 0, 9)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			values = values[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					p := image.Point{X: x + dx, Y: y + dy}
					if !p.In(b) {
						continue
					}
					values = append(values, grayAt(src, p.X, p.Y))
				}
			}
			out.SetNRGBA(x, y, grayPixel(reduce(values)))
		}
	}
	return out
}
