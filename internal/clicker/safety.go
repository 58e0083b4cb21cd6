package clicker

import (
	"image"

	"jordanella.com/autoclicker-go/internal/cv"
)

// IsUnsafe reports whether p falls inside any safety zone, edges included
func IsUnsafe(p image.Point, zones []cv.Region) bool {
	for _, zone := range zones {
		if zone.Contains(p) {
			return true
		}
	}
	return false
}
