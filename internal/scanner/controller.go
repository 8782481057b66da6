package scanner

import (
	"log/slog"
	"sync"
	"time"

	"continue-clicker/internal/click"
	"continue-clicker/internal/config"
	"continue-clicker/internal/stats"
	"continue-clicker/pkg/geometry"
)

// State is the controller's externally visible phase.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateWaiting
	StateExtendedCooldown
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateScanning:
		return "SCANNING"
	case StateWaiting:
		return "WAITING"
	case StateExtendedCooldown:
		return "EXTENDED_COOLDOWN"
	case StatePaused:
		return "PAUSED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Runner executes one scan cycle with internal retries.
type Runner interface {
	ScanWithRetry(scanNumber int) (Outcome, error)
}

// Clicker acts on detected coordinates.
type Clicker interface {
	Execute(candidates []geometry.PointInt) (click.Result, error)
}

// Controller drives the scan loop: scan, act, wait, repeat, with an extended
// cooldown after a run of consecutive failures. Stop and Pause are safe from
// any goroutine.
type Controller struct {
	cfg     *config.Registry
	runner  Runner
	clicker Clicker
	stats   *stats.Store

	mu     sync.Mutex
	state  State
	paused bool

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}

	// waitSlice bounds how long a wait ignores a stop request.
	waitSlice time.Duration
	waitFn    func(d time.Duration) (interrupted bool)
}

// NewController wires the loop together.
func NewController(cfg *config.Registry, runner Runner, clicker Clicker, st *stats.Store) *Controller {
	c := &Controller{
		cfg:       cfg,
		runner:    runner,
		clicker:   clicker,
		stats:     st,
		state:     StateIdle,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		waitSlice: 250 * time.Millisecond,
	}
	c.waitFn = c.interruptibleWait
	return c
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	if c.state != s {
		slog.Debug("state change", "from", c.state, "to", s)
		c.state = s
	}
	c.mu.Unlock()
}

// Pause suspends scanning after the current cycle completes.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	slog.Info("scanning paused")
}

// Resume continues a paused loop.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	slog.Info("scanning resumed")
}

func (c *Controller) isPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Start runs the loop in a goroutine.
func (c *Controller) Start() {
	go c.Run()
}

// Stop signals the loop and blocks until it has exited.
func (c *Controller) Stop() {
	c.signalStop()
	<-c.doneCh
}

func (c *Controller) signalStop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Controller) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// Run executes scan cycles until stopped.
func (c *Controller) Run() {
	defer close(c.doneCh)
	defer c.setState(StateStopped)

	slog.Info("scan loop started",
		"interval", c.cfg.Duration(config.ScanInterval),
		"session", c.stats.SessionID())

	for {
		if c.stopped() {
			return
		}
		if c.isPaused() {
			c.setState(StatePaused)
			if c.waitFn(c.waitSlice) {
				return
			}
			continue
		}

		c.healthCheck()

		scanNumber := c.stats.NextScanNumber()
		c.setState(StateScanning)
		out, err := c.runner.ScanWithRetry(scanNumber)
		success := err == nil && len(out.Coordinates) > 0

		switch {
		case out.Skipped:
			// nothing to do
		case success:
			c.act(out.Coordinates)
		case err != nil:
			slog.Error("scan cycle failed", "scan", scanNumber, "error", err)
		default:
			slog.Debug("no detection this cycle", "scan", scanNumber)
		}

		if !out.Skipped {
			if every := c.cfg.Int(config.ScanStatusReportEvery); every > 0 && scanNumber%every == 0 {
				c.logStatus()
			}
		}

		if c.needsCooldown(out, success) {
			c.setState(StateExtendedCooldown)
			wait := c.cfg.Duration(config.ScanExtendedWait)
			slog.Warn("too many consecutive failures, backing off",
				"failures", c.stats.ConsecutiveFailures(), "wait", wait)
			if c.waitFn(wait) {
				return
			}
			c.stats.ResetConsecutiveFailures()
		} else {
			c.setState(StateWaiting)
			if c.waitFn(c.cfg.Duration(config.ScanInterval)) {
				return
			}
		}
		c.setState(StateIdle)
	}
}

func (c *Controller) needsCooldown(out Outcome, success bool) bool {
	if out.Skipped || success {
		return false
	}
	max := c.cfg.Int(config.ScanMaxConsecutiveFails)
	return max > 0 && c.stats.ConsecutiveFailures() >= max
}

func (c *Controller) act(coords []geometry.PointInt) {
	res, err := c.clicker.Execute(coords)
	c.stats.RecordClick(err == nil)
	if err != nil {
		slog.Error("click failed", "error", err)
		return
	}
	slog.Info("clicked detected target",
		"x", res.Target.X, "y", res.Target.Y, "attempts", res.Attempts)
}

// healthCheck warns when the loop spends most of its time failing. It never
// stops the loop; the operator decides what to do with the warning.
func (c *Controller) healthCheck() {
	if c.stats.TotalScans() <= 10 {
		return
	}
	if rate := c.stats.ErrorRate(); rate > 0.5 {
		slog.Warn("high error rate",
			"rate", rate, "errors", c.stats.TotalErrors(), "scans", c.stats.TotalScans())
	}
}

func (c *Controller) logStatus() {
	sum := c.stats.Snapshot()
	slog.Info("status report",
		"session", sum.SessionID,
		"uptime", sum.Uptime.Round(time.Second),
		"scans", sum.TotalScans,
		"detections", sum.SuccessfulDetections,
		"clicks", sum.ClicksPerformed,
		"success_rate", sum.SuccessRate,
		"avg_scan", sum.AvgScanTime.Round(time.Millisecond),
		"errors", sum.ErrorCounts,
		"cpu_pct", sum.ProcessCPUPercent,
		"mem_mb", sum.ProcessMemoryMB)
}

// interruptibleWait sleeps in short slices so Stop takes effect within
// waitSlice even during a long cooldown.
func (c *Controller) interruptibleWait(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		slice := c.waitSlice
		if remaining < slice {
			slice = remaining
		}
		select {
		case <-c.stopCh:
			return true
		case <-time.After(slice):
		}
	}
}
