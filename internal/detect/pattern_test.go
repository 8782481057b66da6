package detect

import (
	"testing"

	"continue-clicker/pkg/geometry"
)

const (
	testPattern = `Model\s+thinking\s+limit\s+reached.*?Continue.*?to`
	testEndWord = "to"
)

func promptDetections(includeContinue bool) []Detection {
	words := []struct {
		text string
		x, y int
	}{
		{"Model", 10, 50},
		{"thinking", 60, 50},
		{"limit", 120, 50},
		{"reached,", 160, 50},
		{"please", 210, 50},
		{"enter", 260, 50},
		{"Continue", 310, 50},
		{"to", 110, 55},
	}
	var out []Detection
	for _, w := range words {
		if !includeContinue && w.text == "Continue" {
			continue
		}
		d := det(w.text, 80, w.x, w.y)
		if w.text == "to" {
			d.Box = geometry.RectInt{X: 100, Y: 50, Width: 20, Height: 10}
			d.Center = d.Box.Center()
		}
		out = append(out, d)
	}
	return out
}

func mustLocator(t *testing.T) *Locator {
	t.Helper()
	l, err := NewLocator(testPattern, testEndWord)
	if err != nil {
		t.Fatalf("NewLocator: %v", err)
	}
	return l
}

func TestLocateFindsTerminalWordCenter(t *testing.T) {
	l := mustLocator(t)
	coords := l.Locate(promptDetections(true))
	want := []geometry.PointInt{{X: 110, Y: 55}}
	if len(coords) != 1 || coords[0] != want[0] {
		t.Errorf("Locate() = %v, want %v", coords, want)
	}
}

func TestLocateNoMatchWithoutKeyword(t *testing.T) {
	l := mustLocator(t)
	if coords := l.Locate(promptDetections(false)); len(coords) != 0 {
		t.Errorf("Locate() = %v, want empty", coords)
	}
}

func TestLocateIsCaseInsensitive(t *testing.T) {
	l := mustLocator(t)
	in := []Detection{
		det("model", 80, 10, 50),
		det("THINKING", 80, 60, 50),
		det("Limit", 80, 120, 50),
		det("reached", 80, 160, 50),
		det("CONTINUE", 80, 310, 50),
		det("TO", 80, 360, 50),
	}
	coords := l.Locate(in)
	if len(coords) != 1 {
		t.Fatalf("got %d coordinates, want 1", len(coords))
	}
	if coords[0] != (geometry.PointInt{X: 360, Y: 50}) {
		t.Errorf("Locate() = %v, want (360,50)", coords[0])
	}
}

// The terminal word can sit inside a token with attached punctuation; the
// owner lookup is per character, not per token.
func TestLocateAttributionWithPunctuation(t *testing.T) {
	l := mustLocator(t)
	in := []Detection{
		det("Model", 80, 10, 50),
		det("thinking", 80, 60, 50),
		det("limit", 80, 120, 50),
		det("reached.", 80, 160, 50),
		det("Continue", 80, 310, 50),
		det("'to'", 80, 365, 52),
	}
	coords := l.Locate(in)
	if len(coords) != 1 {
		t.Fatalf("got %d coordinates, want 1", len(coords))
	}
	if coords[0] != (geometry.PointInt{X: 365, Y: 52}) {
		t.Errorf("Locate() = %v, want center of the 'to' token", coords[0])
	}
}

// Near-duplicate surviving detections can produce one candidate per
// occurrence; the locator emits them all and leaves merging to the
// coordinate dedup.
func TestLocateEmitsAllOccurrences(t *testing.T) {
	l := mustLocator(t)
	in := []Detection{
		det("Model", 80, 10, 50),
		det("thinking", 80, 60, 50),
		det("limit", 80, 120, 50),
		det("reached", 80, 160, 50),
		det("Continue", 80, 310, 50),
		det("to", 80, 360, 50),
		det("Model", 80, 10, 400),
		det("thinking", 80, 60, 400),
		det("limit", 80, 120, 400),
		det("reached", 80, 160, 400),
		det("Continue", 80, 310, 400),
		det("to", 80, 360, 400),
	}
	coords := l.Locate(in)
	if len(coords) != 2 {
		t.Fatalf("got %d coordinates, want 2: %v", len(coords), coords)
	}
}

func TestLocateEmptyInput(t *testing.T) {
	l := mustLocator(t)
	if coords := l.Locate(nil); coords != nil {
		t.Errorf("Locate(nil) = %v, want nil", coords)
	}
}

func TestNewLocatorRejectsBadPattern(t *testing.T) {
	if _, err := NewLocator(`([`, "to"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
