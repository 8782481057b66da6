// Package platform holds the OS-facing adapters: screen capture and mouse
// control. Everything else in the pipeline talks to these through small
// interfaces so tests never touch a real display.
package platform

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-vgo/robotgo"
	"github.com/vova616/screenshot"
)

// ErrSafetyAbort is returned when the fail-safe triggers: the user parked the
// cursor in a screen corner to stop automated clicking.
var ErrSafetyAbort = errors.New("platform: safety abort, cursor parked in screen corner")

// Screen captures the primary display. The X11 shared-memory path is tried
// first; robotgo's slower portable capture is the fallback.
type Screen struct{}

// Capture grabs one full-screen frame.
func (Screen) Capture() (image.Image, error) {
	img, err := screenshot.CaptureScreen()
	if err == nil {
		return img, nil
	}
	slog.Debug("primary capture failed, falling back", "error", err)

	fallback, ferr := robotgo.CaptureImg()
	if ferr != nil {
		return nil, fmt.Errorf("platform: capture: %w (fallback: %v)", err, ferr)
	}
	return fallback, nil
}

// Mouse performs clicks through robotgo with an optional corner fail-safe.
type Mouse struct {
	// FailSafe aborts a click when the cursor sits within CornerMargin
	// pixels of any screen corner.
	FailSafe     bool
	CornerMargin int
}

// NewMouse returns a Mouse with the fail-safe armed.
func NewMouse() *Mouse {
	return &Mouse{FailSafe: true, CornerMargin: 5}
}

// ScreenSize returns the primary display dimensions in pixels.
func (m *Mouse) ScreenSize() (width, height int) {
	return robotgo.GetScreenSize()
}

// Click moves the cursor to (x, y) and presses the left button.
func (m *Mouse) Click(x, y int) error {
	if m.FailSafe && m.cursorInCorner() {
		return ErrSafetyAbort
	}
	robotgo.Move(x, y)
	robotgo.MilliSleep(50)
	robotgo.Click("left", false)
	return nil
}

func (m *Mouse) cursorInCorner() bool {
	x, y := robotgo.Location()
	w, h := robotgo.GetScreenSize()
	margin := m.CornerMargin
	nearX := x <= margin || x >= w-1-margin
	nearY := y <= margin || y >= h-1-margin
	return nearX && nearY
}
