// Package stats tracks scan, detection, and click metrics for the scanner.
// A single Store is shared by reference between the orchestrator and any
// monitoring surface; there is no ambient global state.
package stats

import (
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"
	"gonum.org/v1/gonum/stat"
)

// Error categories recorded by the pipeline stages.
const (
	ErrScreenshot  = "screenshot"
	ErrEnhancement = "enhancement"
	ErrOCR         = "ocr"
	ErrClick       = "click"
	ErrScan        = "scan"
)

// Store accumulates process-lifetime counters. All methods are safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	sessionID string
	startTime time.Time

	totalScans           int
	successfulDetections int
	failedScans          int

	consecutiveFailures    int
	maxConsecutiveFailures int

	clicksPerformed int
	clickErrors     int

	errorCounts map[string]int

	durations   []float64 // seconds, newest last, capped
	maxHistory  int
	lastSuccess time.Time
	lastClick   time.Time

	proc *process.Process
}

// New creates a Store with a fresh session ID. maxHistory caps the scan
// duration samples kept for averaging.
func New(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = 100
	}
	s := &Store{
		sessionID:   uuid.NewString(),
		startTime:   time.Now(),
		errorCounts: make(map[string]int),
		maxHistory:  maxHistory,
	}
	// Best effort; process metrics stay zero if the lookup fails.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	return s
}

// SessionID returns the UUID assigned at construction.
func (s *Store) SessionID() string { return s.sessionID }

// NextScanNumber returns the number the upcoming scan cycle should use.
func (s *Store) NextScanNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalScans + 1
}

// RecordScan records one completed scan cycle.
func (s *Store) RecordScan(success bool, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalScans++
	s.durations = append(s.durations, duration.Seconds())
	if len(s.durations) > s.maxHistory {
		s.durations = s.durations[len(s.durations)-s.maxHistory:]
	}

	if success {
		s.successfulDetections++
		s.consecutiveFailures = 0
		s.lastSuccess = time.Now()
		return
	}
	s.failedScans++
	s.consecutiveFailures++
	if s.consecutiveFailures > s.maxConsecutiveFailures {
		s.maxConsecutiveFailures = s.consecutiveFailures
	}
}

// RecordError increments one error category.
func (s *Store) RecordError(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCounts[kind]++
}

// RecordClick records a click attempt outcome.
func (s *Store) RecordClick(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.clicksPerformed++
		s.lastClick = time.Now()
		return
	}
	s.clickErrors++
	s.errorCounts[ErrClick]++
}

// ConsecutiveFailures returns the current run of failed scan cycles.
func (s *Store) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

// ResetConsecutiveFailures clears the failure run, e.g. after an extended
// cooldown.
func (s *Store) ResetConsecutiveFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures = 0
}

// TotalScans returns the number of completed scan cycles.
func (s *Store) TotalScans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalScans
}

// TotalErrors returns the sum of all recorded error categories.
func (s *Store) TotalErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalErrorsLocked()
}

func (s *Store) totalErrorsLocked() int {
	total := 0
	for _, n := range s.errorCounts {
		total += n
	}
	return total
}

// ErrorRate returns total errors divided by total scans, or 0 before the
// first scan.
func (s *Store) ErrorRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.totalScans == 0 {
		return 0
	}
	return float64(s.totalErrorsLocked()) / float64(s.totalScans)
}

// Summary is a point-in-time copy of the store for status reporting.
type Summary struct {
	SessionID string
	Uptime    time.Duration

	TotalScans           int
	SuccessfulDetections int
	FailedScans          int
	SuccessRate          float64

	ConsecutiveFailures    int
	MaxConsecutiveFailures int

	ClicksPerformed int
	ClickErrors     int

	ErrorCounts map[string]int

	AvgScanTime   time.Duration
	StdDevScan    time.Duration
	MinScanTime   time.Duration
	MaxScanTime   time.Duration
	SamplesInAvg  int
	LastSuccessAt time.Time
	LastClickAt   time.Time

	ProcessCPUPercent float64
	ProcessMemoryMB   float64
}

// Snapshot builds a Summary. Process CPU/memory are best-effort.
func (s *Store) Snapshot() Summary {
	s.mu.Lock()

	sum := Summary{
		SessionID:              s.sessionID,
		Uptime:                 time.Since(s.startTime),
		TotalScans:             s.totalScans,
		SuccessfulDetections:   s.successfulDetections,
		FailedScans:            s.failedScans,
		ConsecutiveFailures:    s.consecutiveFailures,
		MaxConsecutiveFailures: s.maxConsecutiveFailures,
		ClicksPerformed:        s.clicksPerformed,
		ClickErrors:            s.clickErrors,
		ErrorCounts:            make(map[string]int, len(s.errorCounts)),
		SamplesInAvg:           len(s.durations),
		LastSuccessAt:          s.lastSuccess,
		LastClickAt:            s.lastClick,
	}
	for k, v := range s.errorCounts {
		sum.ErrorCounts[k] = v
	}
	if s.totalScans > 0 {
		sum.SuccessRate = float64(s.successfulDetections) / float64(s.totalScans)
	}
	if len(s.durations) > 0 {
		mean, std := stat.MeanStdDev(s.durations, nil)
		if math.IsNaN(std) {
			std = 0
		}
		sum.AvgScanTime = secondsToDuration(mean)
		sum.StdDevScan = secondsToDuration(std)
		minV, maxV := s.durations[0], s.durations[0]
		for _, d := range s.durations[1:] {
			minV = math.Min(minV, d)
			maxV = math.Max(maxV, d)
		}
		sum.MinScanTime = secondsToDuration(minV)
		sum.MaxScanTime = secondsToDuration(maxV)
	}
	proc := s.proc
	s.mu.Unlock()

	if proc != nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			sum.ProcessCPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			sum.ProcessMemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
	}
	return sum
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
