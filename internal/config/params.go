package config

import (
	"log/slog"
	"time"
)

// Parameter names used by the pipeline. Declared as constants so callers
// don't scatter string literals.
const (
	ScanInterval            = "scan.interval"
	ScanMaxRetries          = "scan.max_retries"
	ScanRetryDelay          = "scan.retry_delay"
	ScanMaxConsecutiveFails = "scan.max_consecutive_failures"
	ScanExtendedWait        = "scan.extended_wait"
	ScanStatusReportEvery   = "scan.status_report_every"
	ScanSkipUnchanged       = "scan.skip_unchanged"
	ScanHashDistance        = "scan.hash_distance"

	CaptureMaxRetries = "capture.max_retries"
	CaptureRetryDelay = "capture.retry_delay"

	OCRMinConfidence = "ocr.min_confidence"

	DedupDistance       = "dedup.distance"
	DedupFinalTolerance = "dedup.final_tolerance"

	ClickOffsetX     = "click.offset_x"
	ClickOffsetY     = "click.offset_y"
	ClickMaxRetries  = "click.max_retries"
	ClickRetryDelay  = "click.retry_delay"
	ClickSettleDelay = "click.settle_delay"

	ImageMinWidth       = "image.min_width"
	ImageMinHeight      = "image.min_height"
	ImageSaveDebug      = "image.save_debug"
	ImageScreenshotsDir = "image.screenshots_dir"
	ImageMaxScreenshots = "image.max_screenshots"

	EnhanceCLAHEClip      = "enhance.clahe_clip"
	EnhanceCLAHETile      = "enhance.clahe_tile"
	EnhanceThresholdBlock = "enhance.threshold_block"
	EnhanceThresholdC     = "enhance.threshold_c"

	PatternTarget  = "pattern.target"
	PatternEndWord = "pattern.end_word"
)

// DefaultTargetPattern is the loose regex for the prompt this tool watches
// for. The .*? gaps tolerate OCR noise between the key phrase fragments.
const DefaultTargetPattern = `Model\s+thinking\s+limit\s+reached.*?Continue.*?to`

// DefaultEndWord is the word whose on-screen position gets clicked.
const DefaultEndWord = "to"

func registerDefaults(r *Registry) {
	params := []Parameter{
		{Name: ScanInterval, Description: "delay between scan cycles", Kind: KindDuration, Default: 2 * time.Minute, Min: 1, Max: 3600},
		{Name: ScanMaxRetries, Description: "scan attempts per cycle", Kind: KindInt, Default: 3, Min: 1, Max: 10},
		{Name: ScanRetryDelay, Description: "delay between scan retries", Kind: KindDuration, Default: 5 * time.Second, Min: 0, Max: 300},
		{Name: ScanMaxConsecutiveFails, Description: "consecutive failed cycles before extended cooldown", Kind: KindInt, Default: 5, Min: 1, Max: 100},
		{Name: ScanExtendedWait, Description: "extended cooldown after repeated failures", Kind: KindDuration, Default: 5 * time.Minute, Min: 1, Max: 7200},
		{Name: ScanStatusReportEvery, Description: "scans between status reports", Kind: KindInt, Default: 10, Min: 1, Max: 1000},
		{Name: ScanSkipUnchanged, Description: "skip OCR when the screen has not changed", Kind: KindBool, Default: false},
		{Name: ScanHashDistance, Description: "perceptual hash distance treated as unchanged", Kind: KindInt, Default: 5, Min: 0, Max: 64},

		{Name: CaptureMaxRetries, Description: "screenshot retries after a failed attempt", Kind: KindInt, Default: 3, Min: 0, Max: 10},
		{Name: CaptureRetryDelay, Description: "delay between screenshot attempts", Kind: KindDuration, Default: time.Second, Min: 0, Max: 60},

		{Name: OCRMinConfidence, Description: "minimum word confidence (0-100)", Kind: KindFloat, Default: 15.0, Min: 0, Max: 100},

		{Name: DedupDistance, Description: "pixel distance for same-text detection dedup", Kind: KindFloat, Default: 20.0, Min: 0, Max: 500},
		{Name: DedupFinalTolerance, Description: "pixel tolerance for final coordinate merge", Kind: KindFloat, Default: 5.0, Min: 0, Max: 100},

		{Name: ClickOffsetX, Description: "horizontal click offset in pixels", Kind: KindInt, Default: 0, Min: -200, Max: 200},
		{Name: ClickOffsetY, Description: "vertical click offset in pixels", Kind: KindInt, Default: 0, Min: -200, Max: 200},
		{Name: ClickMaxRetries, Description: "click retries after a failed attempt", Kind: KindInt, Default: 3, Min: 0, Max: 10},
		{Name: ClickRetryDelay, Description: "delay between click attempts", Kind: KindDuration, Default: 5 * time.Second, Min: 0, Max: 300},
		{Name: ClickSettleDelay, Description: "post-click settle delay", Kind: KindDuration, Default: 2 * time.Second, Min: 0, Max: 60},

		{Name: ImageMinWidth, Description: "minimum usable capture width", Kind: KindInt, Default: 10, Min: 1, Max: 10000},
		{Name: ImageMinHeight, Description: "minimum usable capture height", Kind: KindInt, Default: 10, Min: 1, Max: 10000},
		{Name: ImageSaveDebug, Description: "save raw and enhanced captures to disk", Kind: KindBool, Default: false},
		{Name: ImageScreenshotsDir, Description: "directory for debug captures", Kind: KindString, Default: "screenshots"},
		{Name: ImageMaxScreenshots, Description: "debug captures kept on disk", Kind: KindInt, Default: 10, Min: 1, Max: 1000},

		{Name: EnhanceCLAHEClip, Description: "CLAHE clip limit", Kind: KindFloat, Default: 3.0, Min: 0.1, Max: 40},
		{Name: EnhanceCLAHETile, Description: "CLAHE tile grid size", Kind: KindInt, Default: 8, Min: 1, Max: 64},
		{Name: EnhanceThresholdBlock, Description: "adaptive threshold block size (odd)", Kind: KindInt, Default: 11, Min: 3, Max: 99},
		{Name: EnhanceThresholdC, Description: "adaptive threshold constant", Kind: KindFloat, Default: 2.0, Min: -50, Max: 50},

		{Name: PatternTarget, Description: "target phrase regex", Kind: KindString, Default: DefaultTargetPattern},
		{Name: PatternEndWord, Description: "terminal word to click", Kind: KindString, Default: DefaultEndWord},
	}
	for _, p := range params {
		r.Register(p)
	}
}

// Typed accessors. An unknown name is a wiring bug; the accessors log it and
// fall back to the zero value rather than crash the scan loop.

func (r *Registry) Int(name string) int {
	v, err := r.Get(name)
	if err != nil {
		slog.Error("config lookup failed", "name", name, "error", err)
		return 0
	}
	return v.(int)
}

func (r *Registry) Float(name string) float64 {
	v, err := r.Get(name)
	if err != nil {
		slog.Error("config lookup failed", "name", name, "error", err)
		return 0
	}
	return v.(float64)
}

func (r *Registry) Bool(name string) bool {
	v, err := r.Get(name)
	if err != nil {
		slog.Error("config lookup failed", "name", name, "error", err)
		return false
	}
	return v.(bool)
}

func (r *Registry) String(name string) string {
	v, err := r.Get(name)
	if err != nil {
		slog.Error("config lookup failed", "name", name, "error", err)
		return ""
	}
	return v.(string)
}

func (r *Registry) Duration(name string) time.Duration {
	v, err := r.Get(name)
	if err != nil {
		slog.Error("config lookup failed", "name", name, "error", err)
		return 0
	}
	return v.(time.Duration)
}
