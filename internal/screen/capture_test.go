package screen

import (
	"errors"
	"image"
	"testing"
	"time"
)

type fakeCapturer struct {
	frames []image.Image
	errs   []error
	calls  int
}

func (f *fakeCapturer) Capture() (image.Image, error) {
	i := f.calls
	f.calls++
	if i >= len(f.frames) {
		i = len(f.frames) - 1
	}
	return f.frames[i], f.errs[i]
}

func frame(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestGrabRetriesThenSucceeds(t *testing.T) {
	boom := errors.New("x11 busy")
	fc := &fakeCapturer{
		frames: []image.Image{nil, nil, frame(800, 600)},
		errs:   []error{boom, boom, nil},
	}
	g := NewGrabber(fc, GrabOptions{MaxRetries: 3, RetryDelay: time.Second, MinWidth: 10, MinHeight: 10})

	var slept []time.Duration
	g.sleep = func(d time.Duration) { slept = append(slept, d) }

	img, err := g.Grab()
	if err != nil {
		t.Fatalf("Grab() error = %v", err)
	}
	if img.Bounds().Dx() != 800 {
		t.Errorf("got %v frame", img.Bounds())
	}
	if fc.calls != 3 {
		t.Errorf("capturer called %d times, want 3", fc.calls)
	}
	if len(slept) != 2 {
		t.Errorf("slept %d times between attempts, want 2", len(slept))
	}
}

func TestGrabExhaustsRetries(t *testing.T) {
	boom := errors.New("no display")
	fc := &fakeCapturer{
		frames: []image.Image{nil},
		errs:   []error{boom},
	}
	g := NewGrabber(fc, GrabOptions{MaxRetries: 2, MinWidth: 10, MinHeight: 10})
	g.sleep = func(time.Duration) {}

	_, err := g.Grab()
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("error = %v, want ErrCaptureFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error chain should retain the cause, got %v", err)
	}
	if fc.calls != 3 {
		t.Errorf("capturer called %d times, want 3", fc.calls)
	}
}

func TestGrabRejectsUndersizedFrame(t *testing.T) {
	fc := &fakeCapturer{
		frames: []image.Image{frame(4, 4)},
		errs:   []error{nil},
	}
	g := NewGrabber(fc, GrabOptions{MaxRetries: 0, MinWidth: 10, MinHeight: 10})
	g.sleep = func(time.Duration) {}

	if _, err := g.Grab(); !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("error = %v, want ErrCaptureFailed for undersized frame", err)
	}
}
