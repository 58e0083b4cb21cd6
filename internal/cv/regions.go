package cv

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Region is a screen rectangle given by its top-left corner and size
type Region struct {
	X, Y, W, H int
}

// NewRegion creates a new region
func NewRegion(x, y, w, h int) Region {
	return Region{X: x, Y: y, W: w, H: h}
}

// Contains checks if a point is within the region. Edges are inclusive on
// all four sides, so the closed rectangle [X, X+W] x [Y, Y+H] is covered.
func (r Region) Contains(p image.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Validate checks that the origin is non-negative and the size positive
func (r Region) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("origin (%d,%d) must be non-negative", r.X, r.Y)
	}
	if r.W <= 0 || r.H <= 0 {
		return fmt.Errorf("size %dx%d must be positive", r.W, r.H)
	}
	return nil
}

// ToImageRectangle converts Region to the pixel rectangle used for cropping
func (r Region) ToImageRectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// String formats the region as "x,y,w,h"
func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.W, r.H)
}

// ParseRegion parses "x,y,w,h" (commas or whitespace) into a validated Region
func ParseRegion(s string) (Region, error) {
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return c == ',' || c == ' ' || c == '\t'
	})
	if len(fields) != 4 {
		return Region{}, fmt.Errorf("region %q: expected 4 values x,y,w,h, got %d", s, len(fields))
	}

	values := make([]int, 4)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Region{}, fmt.Errorf("region %q: value %q is not an integer", s, f)
		}
		values[i] = v
	}

	r := NewRegion(values[0], values[1], values[2], values[3])
	if err := r.Validate(); err != nil {
		return Region{}, fmt.Errorf("region %q: %w", s, err)
	}
	return r, nil
}

// ParseRegionList parses several regions separated by newlines or semicolons.
// Blank entries and lines starting with '#' are ignored.
func ParseRegionList(s string) ([]Region, error) {
	entries := strings.FieldsFunc(s, func(c rune) bool {
		return c == '\n' || c == ';'
	})

	var regions []Region
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		r, err := ParseRegion(entry)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// FormatRegionList is the inverse of ParseRegionList
func FormatRegionList(regions []Region) string {
	parts := make([]string, len(regions))
	for i, r := range regions {
		parts[i] = r.String()
	}
	return strings.Join(parts, ";")
}
