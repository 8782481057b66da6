package screen

import (
	"image"
	"log/slog"

	"github.com/corona10/goimagehash"
)

// ChangeDetector decides whether a frame differs enough from the previous one
// to be worth running through OCR. It compares perceptual difference hashes;
// frames within maxDistance bits are considered unchanged.
type ChangeDetector struct {
	last        *goimagehash.ImageHash
	maxDistance int
}

// NewChangeDetector creates a detector. maxDistance 0 requires an exact hash
// match before a frame is skipped.
func NewChangeDetector(maxDistance int) *ChangeDetector {
	if maxDistance < 0 {
		maxDistance = 0
	}
	return &ChangeDetector{maxDistance: maxDistance}
}

// Unchanged reports whether img hashes within the distance threshold of the
// previous frame. The first frame, and any frame that fails to hash, is
// always treated as changed.
func (c *ChangeDetector) Unchanged(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		slog.Debug("frame hash failed, treating as changed", "error", err)
		return false
	}
	prev := c.last
	c.last = hash
	if prev == nil {
		return false
	}
	dist, err := prev.Distance(hash)
	if err != nil {
		return false
	}
	return dist <= c.maxDistance
}

// Reset forgets the previous frame so the next one is always scanned.
func (c *ChangeDetector) Reset() {
	c.last = nil
}
