package screen

import (
	"image"
	"image/color"
	"testing"
)

func gradient(w, h int, reversed bool) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255 * x / (w - 1))
			if reversed {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestChangeDetectorFirstFrameIsChanged(t *testing.T) {
	d := NewChangeDetector(0)
	if d.Unchanged(gradient(64, 64, false)) {
		t.Error("first frame reported as unchanged")
	}
}

func TestChangeDetectorIdenticalFrames(t *testing.T) {
	d := NewChangeDetector(0)
	img := gradient(64, 64, false)
	d.Unchanged(img)
	if !d.Unchanged(img) {
		t.Error("identical frame reported as changed")
	}
}

func TestChangeDetectorDifferentFrames(t *testing.T) {
	d := NewChangeDetector(5)
	d.Unchanged(gradient(64, 64, false))
	if d.Unchanged(gradient(64, 64, true)) {
		t.Error("reversed gradient reported as unchanged")
	}
}

func TestChangeDetectorReset(t *testing.T) {
	d := NewChangeDetector(0)
	img := gradient(64, 64, false)
	d.Unchanged(img)
	d.Reset()
	if d.Unchanged(img) {
		t.Error("frame after Reset reported as unchanged")
	}
}
