// Package ocr extracts word-level text detections from enhanced screen
// captures using Tesseract. Because the target text's layout in the UI is
// unknown a priori, every image is run through a battery of page
// segmentation modes; no single mode reliably isolates a one-line prompt.
package ocr

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"continue-clicker/internal/detect"
	"continue-clicker/internal/enhance"
	"continue-clicker/pkg/geometry"
)

// Config names one page segmentation assumption in the battery.
type Config struct {
	Name string
	Mode gosseract.PageSegMode
}

// Battery returns the fixed set of segmentation modes tried per image.
func Battery() []Config {
	return []Config{
		{"psm6_block", gosseract.PSM_SINGLE_BLOCK},
		{"psm8_word", gosseract.PSM_SINGLE_WORD},
		{"psm7_line", gosseract.PSM_SINGLE_LINE},
		{"psm11_sparse", gosseract.PSM_SPARSE_TEXT},
		{"psm12_sparse_osd", gosseract.PSM_SPARSE_TEXT_OSD},
		{"psm13_raw_line", gosseract.PSM_RAW_LINE},
	}
}

// Word is one raw OCR token before filtering.
type Word struct {
	Text       string
	Box        geometry.RectInt
	Confidence float64
}

// Engine wraps a Tesseract client.
type Engine struct {
	client        *gosseract.Client
	minConfidence float64
	battery       []Config
}

// NewEngine creates an OCR engine configured for English UI text.
func NewEngine(minConfidence float64) (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set language: %w", err)
	}
	return &Engine{
		client:        client,
		minConfidence: minConfidence,
		battery:       Battery(),
	}, nil
}

// Close releases Tesseract resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// SetMinConfidence updates the acceptance threshold for later extractions.
func (e *Engine) SetMinConfidence(c float64) {
	e.minConfidence = c
}

// ExtractVariant runs the whole battery against one enhancement variant and
// returns every acceptable word detection. A failing configuration is logged
// and skipped; an error is returned only when every configuration failed.
func (e *Engine) ExtractVariant(v enhance.Variant) ([]detect.Detection, error) {
	return e.extract(v.Mat, v.Method)
}

// ExtractImage runs the battery against an arbitrary image (e.g. the raw
// capture in debug tooling).
func (e *Engine) ExtractImage(img gocv.Mat, method string) ([]detect.Detection, error) {
	return e.extract(img, method)
}

func (e *Engine) extract(img gocv.Mat, method string) ([]detect.Detection, error) {
	if img.Empty() {
		return nil, errors.New("ocr: empty image")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("ocr: encode image: %w", err)
	}
	defer buf.Close()
	png := buf.GetBytes()

	var all []detect.Detection
	var errs []error
	for _, cfg := range e.battery {
		words, err := e.recognize(png, cfg.Mode)
		if err != nil {
			slog.Warn("ocr config skipped", "method", method, "config", cfg.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", cfg.Name, err))
			continue
		}
		dets := WordsToDetections(words, method, cfg.Name, e.minConfidence)
		slog.Debug("ocr config done", "method", method, "config", cfg.Name, "detections", len(dets))
		all = append(all, dets...)
	}
	if len(errs) == len(e.battery) {
		return nil, fmt.Errorf("ocr: all configurations failed: %w", errors.Join(errs...))
	}
	return all, nil
}

// recognize runs one segmentation mode and returns raw word boxes.
func (e *Engine) recognize(png []byte, mode gosseract.PageSegMode) ([]Word, error) {
	if err := e.client.SetPageSegMode(mode); err != nil {
		return nil, fmt.Errorf("set PSM: %w", err)
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text: b.Word,
			Box: geometry.RectInt{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
			Confidence: b.Confidence,
		})
	}
	return words, nil
}

// WordsToDetections filters raw OCR words into valid detections: blank
// tokens, tokens below the confidence threshold, and degenerate boxes are
// dropped; centers are computed as (left+width/2, top+height/2).
func WordsToDetections(words []Word, method, config string, minConfidence float64) []detect.Detection {
	var out []detect.Detection
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if w.Confidence < minConfidence {
			continue
		}
		if !w.Box.Valid() {
			continue
		}
		out = append(out, detect.Detection{
			Text:       text,
			Confidence: w.Confidence,
			Box:        w.Box,
			Center:     w.Box.Center(),
			Method:     method,
			OCRConfig:  config,
		})
	}
	return out
}
