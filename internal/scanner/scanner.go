// Package scanner runs the capture, enhance, extract, match, click pipeline
// and the loop that drives it.
package scanner

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"continue-clicker/internal/config"
	"continue-clicker/internal/detect"
	"continue-clicker/internal/enhance"
	"continue-clicker/internal/screen"
	"continue-clicker/internal/stats"
	"continue-clicker/pkg/geometry"
)

// FrameSource produces validated full-screen frames.
type FrameSource interface {
	Grab() (image.Image, error)
}

// Enhancer produces processed variants of a frame.
type Enhancer interface {
	Enhance(img gocv.Mat) ([]enhance.Variant, []enhance.Skip)
}

// Extractor runs OCR over one enhancement variant.
type Extractor interface {
	ExtractVariant(v enhance.Variant) ([]detect.Detection, error)
}

// Outcome is the result of one scan cycle.
type Outcome struct {
	Coordinates []geometry.PointInt
	Skipped     bool // frame unchanged since the previous scan
	Attempts    int
}

// Scanner executes single scan cycles over injected pipeline stages.
type Scanner struct {
	cfg       *config.Registry
	frames    FrameSource
	enhancer  Enhancer
	extractor Extractor
	stats     *stats.Store
	artifacts *screen.ArtifactStore // nil disables debug saving
	change    *screen.ChangeDetector

	sleep    func(time.Duration)
	scanOnce func(int) ([]geometry.PointInt, bool, error)
}

// New assembles a Scanner. artifacts may be nil when debug images are
// disabled.
func New(cfg *config.Registry, frames FrameSource, enh Enhancer, ext Extractor,
	st *stats.Store, artifacts *screen.ArtifactStore) *Scanner {

	s := &Scanner{
		cfg:       cfg,
		frames:    frames,
		enhancer:  enh,
		extractor: ext,
		stats:     st,
		artifacts: artifacts,
		change:    screen.NewChangeDetector(cfg.Int(config.ScanHashDistance)),
		sleep:     time.Sleep,
	}
	s.scanOnce = s.runPipeline
	return s
}

// ScanWithRetry runs up to the configured number of attempts for one cycle,
// recording each attempt in the stats store. It returns the first successful
// detection set, or the final empty outcome once attempts are exhausted.
func (s *Scanner) ScanWithRetry(scanNumber int) (Outcome, error) {
	attempts := s.cfg.Int(config.ScanMaxRetries)
	if attempts < 1 {
		attempts = 1
	}
	retryDelay := s.cfg.Duration(config.ScanRetryDelay)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		coords, skipped, err := s.scanOnce(scanNumber)
		elapsed := time.Since(start)

		if skipped {
			// Unchanged frame: retrying immediately would see the
			// same pixels, so end the cycle without recording a
			// failure.
			slog.Debug("frame unchanged, scan skipped", "scan", scanNumber)
			return Outcome{Skipped: true, Attempts: attempt}, nil
		}

		success := err == nil && len(coords) > 0
		s.stats.RecordScan(success, elapsed)
		if err != nil {
			lastErr = err
			s.stats.RecordError(stats.ErrScan)
			slog.Error("scan attempt failed",
				"scan", scanNumber, "attempt", attempt, "error", err)
		}
		if success {
			slog.Info("pattern detected",
				"scan", scanNumber, "attempt", attempt,
				"targets", len(coords), "duration", elapsed.Round(time.Millisecond))
			return Outcome{Coordinates: coords, Attempts: attempt}, nil
		}
		if attempt < attempts {
			slog.Debug("no detection, retrying",
				"scan", scanNumber, "attempt", attempt)
			if retryDelay > 0 {
				s.sleep(retryDelay)
			}
		}
	}
	return Outcome{Attempts: attempts}, lastErr
}

// runPipeline is one full pass: capture, enhance, extract, dedupe, match,
// merge.
func (s *Scanner) runPipeline(scanNumber int) ([]geometry.PointInt, bool, error) {
	img, err := s.frames.Grab()
	if err != nil {
		s.stats.RecordError(stats.ErrScreenshot)
		return nil, false, err
	}

	saveDebug := s.artifacts != nil && s.cfg.Bool(config.ImageSaveDebug)
	if saveDebug {
		if _, err := s.artifacts.SaveImage(fmt.Sprintf("scan%03d_fullscreen", scanNumber), img); err != nil {
			slog.Warn("debug frame save failed", "error", err)
		}
	}

	if s.cfg.Bool(config.ScanSkipUnchanged) && s.change.Unchanged(img) {
		return nil, true, nil
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		s.stats.RecordError(stats.ErrScreenshot)
		return nil, false, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	variants, skips := s.enhancer.Enhance(mat)
	for range skips {
		s.stats.RecordError(stats.ErrEnhancement)
	}
	if len(variants) == 0 {
		return nil, false, enhance.ErrNoVariants
	}
	defer enhance.CloseAll(variants)

	var pool []detect.Detection
	failed := 0
	for _, v := range variants {
		if saveDebug {
			s.saveVariant(scanNumber, v)
		}
		dets, err := s.extractor.ExtractVariant(v)
		if err != nil {
			failed++
			s.stats.RecordError(stats.ErrOCR)
			slog.Warn("ocr failed for variant", "method", v.Method, "error", err)
			continue
		}
		pool = append(pool, dets...)
	}
	if failed == len(variants) {
		return nil, false, errors.New("ocr failed for every variant")
	}

	unique := detect.Dedupe(pool, s.cfg.Float(config.DedupDistance))
	slog.Debug("detections pooled",
		"scan", scanNumber, "raw", len(pool), "unique", len(unique))

	locator, err := detect.NewLocator(
		s.cfg.String(config.PatternTarget), s.cfg.String(config.PatternEndWord))
	if err != nil {
		return nil, false, fmt.Errorf("pattern: %w", err)
	}
	coords := locator.Locate(unique)
	final := detect.MergeCoordinates(coords, s.cfg.Float(config.DedupFinalTolerance))
	return final, false, nil
}

func (s *Scanner) saveVariant(scanNumber int, v enhance.Variant) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, v.Mat)
	if err != nil {
		slog.Warn("variant encode failed", "method", v.Method, "error", err)
		return
	}
	defer buf.Close()
	label := fmt.Sprintf("scan%03d_%s", scanNumber, strings.ToLower(v.Method))
	if _, err := s.artifacts.SavePNG(label, buf.GetBytes()); err != nil {
		slog.Warn("variant save failed", "method", v.Method, "error", err)
	}
}
