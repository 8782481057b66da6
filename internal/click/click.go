// Package click turns detected coordinates into a single mouse click with
// validation, retry, and a settle delay for the UI to react.
package click

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"continue-clicker/pkg/geometry"
)

// ErrNoCandidates is returned when Execute is called with nothing to click.
var ErrNoCandidates = errors.New("click: no candidate coordinates")

// Pointer abstracts the mouse so the executor can be tested without a
// display.
type Pointer interface {
	Click(x, y int) error
	ScreenSize() (width, height int)
}

// Options tunes the executor.
type Options struct {
	OffsetX     int // applied to the target before clicking
	OffsetY     int
	MaxRetries  int           // attempts = MaxRetries + 1
	RetryDelay  time.Duration // wait between failed attempts
	SettleDelay time.Duration // wait after a successful click
}

// DefaultOptions matches the scanner defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries:  3,
		RetryDelay:  time.Second,
		SettleDelay: 2 * time.Second,
	}
}

// Result describes a completed click.
type Result struct {
	Target   geometry.PointInt // final point after offsets
	Attempts int
}

// Executor performs validated clicks.
type Executor struct {
	pointer Pointer
	opts    Options
	sleep   func(time.Duration)
}

// NewExecutor creates an Executor over the given pointer.
func NewExecutor(p Pointer, opts Options) *Executor {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Executor{pointer: p, opts: opts, sleep: time.Sleep}
}

// Execute clicks the first candidate. Extra candidates are logged and
// ignored; the merge step upstream has already collapsed duplicates, so
// multiple survivors mean multiple distinct prompts and one click is enough
// to advance. Screen bounds are re-read on every attempt since displays can
// be reconfigured mid-session.
func (e *Executor) Execute(candidates []geometry.PointInt) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	if len(candidates) > 1 {
		slog.Info("multiple click candidates, using first",
			"count", len(candidates), "chosen", candidates[0])
	}

	target := geometry.PointInt{
		X: candidates[0].X + e.opts.OffsetX,
		Y: candidates[0].Y + e.opts.OffsetY,
	}

	attempts := e.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := e.clickOnce(target)
		if err == nil {
			slog.Info("click performed", "x", target.X, "y", target.Y, "attempt", attempt)
			if e.opts.SettleDelay > 0 {
				e.sleep(e.opts.SettleDelay)
			}
			return Result{Target: target, Attempts: attempt}, nil
		}
		lastErr = err
		if errors.Is(err, errOutOfBounds) {
			slog.Warn("click target outside screen", "target", target, "attempt", attempt)
		} else {
			slog.Warn("click attempt failed", "target", target, "attempt", attempt, "error", err)
		}
		if attempt < attempts && e.opts.RetryDelay > 0 {
			e.sleep(e.opts.RetryDelay)
		}
	}
	return Result{Attempts: attempts}, fmt.Errorf("click: failed after %d attempts: %w", attempts, lastErr)
}

var errOutOfBounds = errors.New("target out of bounds")

func (e *Executor) clickOnce(p geometry.PointInt) error {
	w, h := e.pointer.ScreenSize()
	if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
		return fmt.Errorf("%w: (%d,%d) vs %dx%d", errOutOfBounds, p.X, p.Y, w, h)
	}
	return e.pointer.Click(p.X, p.Y)
}
