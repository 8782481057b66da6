// Package screen acquires frames for the scan pipeline and manages the debug
// artifacts written alongside them.
package screen

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// ErrCaptureFailed wraps the last capture error after every retry was spent.
var ErrCaptureFailed = errors.New("screen: capture failed")

// Capturer produces one full-screen frame.
type Capturer interface {
	Capture() (image.Image, error)
}

// GrabOptions tunes the retrying wrapper.
type GrabOptions struct {
	MaxRetries int           // attempts = MaxRetries + 1
	RetryDelay time.Duration // wait between attempts
	MinWidth   int           // frames smaller than this are rejected
	MinHeight  int
}

// DefaultGrabOptions matches the scanner defaults.
func DefaultGrabOptions() GrabOptions {
	return GrabOptions{
		MaxRetries: 3,
		RetryDelay: time.Second,
		MinWidth:   10,
		MinHeight:  10,
	}
}

// Grabber retries a Capturer and validates frame dimensions. An undersized
// frame counts as a failed attempt; transient compositor glitches often
// produce zero-sized captures.
type Grabber struct {
	capturer Capturer
	opts     GrabOptions
	sleep    func(time.Duration)
}

// NewGrabber wraps a Capturer with retry and validation.
func NewGrabber(c Capturer, opts GrabOptions) *Grabber {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Grabber{capturer: c, opts: opts, sleep: time.Sleep}
}

// Grab captures one frame, retrying up to MaxRetries times.
func (g *Grabber) Grab() (image.Image, error) {
	attempts := g.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		img, err := g.capturer.Capture()
		if err == nil {
			err = g.validate(img)
		}
		if err == nil {
			return img, nil
		}
		lastErr = err
		slog.Warn("screen capture attempt failed",
			"attempt", attempt, "max", attempts, "error", err)
		if attempt < attempts && g.opts.RetryDelay > 0 {
			g.sleep(g.opts.RetryDelay)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrCaptureFailed, attempts, lastErr)
}

func (g *Grabber) validate(img image.Image) error {
	if img == nil {
		return errors.New("nil frame")
	}
	b := img.Bounds()
	if b.Dx() < g.opts.MinWidth || b.Dy() < g.opts.MinHeight {
		return fmt.Errorf("frame %dx%d below minimum %dx%d",
			b.Dx(), b.Dy(), g.opts.MinWidth, g.opts.MinHeight)
	}
	return nil
}
