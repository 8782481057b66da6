// Package detect holds the in-memory detection pipeline: word detections
// from OCR, duplicate merging, target-phrase location, and final coordinate
// clustering. Everything here is pure computation over small slices; no I/O.
package detect

import (
	"sort"
	"strings"

	"continue-clicker/pkg/geometry"
)

// Detection is one OCR-recognized word with its pixel bounding box.
// Detections are never mutated after creation; every pipeline stage that
// filters or merges them produces a new slice.
type Detection struct {
	Text       string
	Confidence float64
	Box        geometry.RectInt
	Center     geometry.PointInt
	Method     string // enhancement variant that produced it
	OCRConfig  string // page segmentation mode that produced it
}

// Valid reports whether the detection is structurally usable: non-blank
// text, non-negative confidence, a positive box, and a non-negative center.
func (d Detection) Valid() bool {
	if strings.TrimSpace(d.Text) == "" {
		return false
	}
	if d.Confidence < 0 {
		return false
	}
	if !d.Box.Valid() {
		return false
	}
	return d.Center.X >= 0 && d.Center.Y >= 0
}

// Dedupe merges near-duplicate detections pooled across enhancement variants
// and OCR configs. Structurally invalid entries are dropped first, the rest
// sorted by confidence descending, then greedily kept: a detection is a
// duplicate iff its case-insensitive text matches an already-kept one and
// their centers are closer than distance. Ties on confidence keep input
// order, so the pass is deterministic and idempotent.
func Dedupe(detections []Detection, distance float64) []Detection {
	valid := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.Valid() {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Confidence > valid[j].Confidence
	})

	kept := make([]Detection, 0, len(valid))
	for _, cur := range valid {
		dup := false
		for _, existing := range kept {
			if strings.EqualFold(cur.Text, existing.Text) &&
				cur.Center.Distance(existing.Center) < distance {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, cur)
		}
	}
	return kept
}
