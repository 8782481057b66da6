package detect

import (
	"testing"

	"continue-clicker/pkg/geometry"
)

func det(text string, conf float64, x, y int) Detection {
	box := geometry.RectInt{X: x - 10, Y: y - 5, Width: 20, Height: 10}
	if box.X < 0 {
		box.X = 0
	}
	if box.Y < 0 {
		box.Y = 0
	}
	return Detection{
		Text:       text,
		Confidence: conf,
		Box:        box,
		Center:     geometry.PointInt{X: x, Y: y},
		Method:     "CLAHE",
		OCRConfig:  "psm6",
	}
}

func TestDetectionValid(t *testing.T) {
	tests := []struct {
		name string
		d    Detection
		want bool
	}{
		{"ok", det("hello", 80, 100, 100), true},
		{"blank text", det("   ", 80, 100, 100), false},
		{"empty text", det("", 80, 100, 100), false},
		{"negative confidence", det("hello", -1, 100, 100), false},
		{"zero-size box", Detection{Text: "x", Confidence: 50, Box: geometry.RectInt{X: 1, Y: 1}, Center: geometry.PointInt{X: 1, Y: 1}}, false},
		{"negative center", Detection{Text: "x", Confidence: 50, Box: geometry.RectInt{X: 0, Y: 0, Width: 5, Height: 5}, Center: geometry.PointInt{X: -2, Y: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeKeepsHighestConfidence(t *testing.T) {
	in := []Detection{
		det("Continue", 40, 100, 100),
		det("Continue", 90, 105, 102), // same word, 5.4px away, higher confidence
		det("Continue", 60, 102, 101),
	}
	out := Dedupe(in, 20)
	if len(out) != 1 {
		t.Fatalf("got %d detections, want 1", len(out))
	}
	if out[0].Confidence != 90 {
		t.Errorf("kept confidence %v, want 90", out[0].Confidence)
	}
}

func TestDedupeTextMatchIsCaseInsensitive(t *testing.T) {
	in := []Detection{
		det("continue", 80, 100, 100),
		det("CONTINUE", 70, 103, 100),
	}
	if out := Dedupe(in, 20); len(out) != 1 {
		t.Errorf("got %d detections, want 1", len(out))
	}
}

func TestDedupeDistantSameTextSurvives(t *testing.T) {
	in := []Detection{
		det("to", 80, 100, 100),
		det("to", 70, 400, 100),
	}
	if out := Dedupe(in, 20); len(out) != 2 {
		t.Errorf("got %d detections, want 2", len(out))
	}
}

func TestDedupeDifferentTextCloseTogether(t *testing.T) {
	in := []Detection{
		det("Model", 80, 100, 100),
		det("thinking", 70, 101, 100),
	}
	if out := Dedupe(in, 20); len(out) != 2 {
		t.Errorf("got %d detections, want 2", len(out))
	}
}

func TestDedupeFiltersInvalid(t *testing.T) {
	in := []Detection{
		det("ok", 80, 100, 100),
		det("  ", 95, 200, 200),
		det("", 95, 300, 300),
	}
	out := Dedupe(in, 20)
	if len(out) != 1 || out[0].Text != "ok" {
		t.Errorf("got %+v, want only the valid detection", out)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	in := []Detection{
		det("Model", 80, 10, 10),
		det("Model", 75, 15, 12),
		det("thinking", 60, 80, 10),
		det("limit", 55, 150, 10),
		det("limit", 90, 152, 11),
		det("to", 40, 300, 40),
	}
	once := Dedupe(in, 20)
	twice := Dedupe(once, 20)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed count: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("entry %d changed: %+v -> %+v", i, once[i], twice[i])
		}
	}
}

func TestDedupeDistanceInvariant(t *testing.T) {
	in := []Detection{
		det("to", 80, 100, 100),
		det("to", 75, 110, 100),
		det("to", 70, 121, 100),
		det("to", 65, 300, 100),
		det("to", 60, 304, 100),
	}
	out := Dedupe(in, 20)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[i].Text == out[j].Text {
				d := out[i].Center.Distance(out[j].Center)
				if d <= 20 {
					t.Errorf("detections %d and %d share text at distance %.1f <= threshold", i, j, d)
				}
			}
		}
	}
}

func TestDedupeEmpty(t *testing.T) {
	if out := Dedupe(nil, 20); out != nil {
		t.Errorf("Dedupe(nil) = %v, want nil", out)
	}
}
