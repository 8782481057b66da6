package detect

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"continue-clicker/pkg/geometry"
)

// span maps a half-open character range [Start, End) of the concatenated
// text back to the detection that produced it. The single-space separators
// between detections belong to no span.
type span struct {
	Start, End int
	Index      int // index into the detection slice
}

// Locator finds the target phrase in a set of detections and maps its
// terminal word back to pixel coordinates.
type Locator struct {
	pattern *regexp.Regexp
	endWord *regexp.Regexp
}

// NewLocator compiles the target pattern and terminal word. Both are matched
// case-insensitively; the terminal word is matched on word boundaries.
func NewLocator(pattern, endWord string) (*Locator, error) {
	p, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("detect: target pattern: %w", err)
	}
	w, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(endWord) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("detect: end word: %w", err)
	}
	return &Locator{pattern: p, endWord: w}, nil
}

// Locate concatenates all detection texts with single spaces, searches the
// target pattern in the combined string, and for every occurrence of the
// terminal word inside a match emits the center of the detection owning the
// word's last character. Attribution is character-level: the terminal word
// need not align with a single OCR token. Candidates from overlapping
// matches are not merged here; that is the coordinate dedup's job.
func (l *Locator) Locate(detections []Detection) []geometry.PointInt {
	if len(detections) == 0 {
		return nil
	}

	var sb strings.Builder
	spans := make([]span, 0, len(detections))
	for i, d := range detections {
		if i > 0 {
			sb.WriteByte(' ')
		}
		start := sb.Len()
		sb.WriteString(d.Text)
		spans = append(spans, span{Start: start, End: sb.Len(), Index: i})
	}
	full := sb.String()

	var coords []geometry.PointInt
	for _, m := range l.pattern.FindAllStringIndex(full, -1) {
		matched := full[m[0]:m[1]]
		for _, wm := range l.endWord.FindAllStringIndex(matched, -1) {
			// Offset of the word's last character in the full string.
			last := m[0] + wm[1] - 1
			idx, ok := ownerOf(spans, last)
			if !ok {
				continue
			}
			c := detections[idx].Center
			slog.Debug("terminal word located", "text", detections[idx].Text, "x", c.X, "y", c.Y)
			coords = append(coords, c)
		}
	}
	return coords
}

// ownerOf binary-searches the ordered spans for the one containing offset.
func ownerOf(spans []span, offset int) (int, bool) {
	i := sort.Search(len(spans), func(i int) bool {
		return spans[i].End > offset
	})
	if i < len(spans) && offset >= spans[i].Start {
		return spans[i].Index, true
	}
	return 0, false
}
