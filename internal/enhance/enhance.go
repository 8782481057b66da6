// Package enhance produces multiple processed variants of a screen capture
// to maximize OCR recall under unknown contrast and theme. Each technique is
// applied independently; one failing technique never blocks the others.
package enhance

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// Method names tag each variant so detections can be traced back to the
// enhancement that produced them.
const (
	MethodCLAHE       = "CLAHE"
	MethodDarkOnLight = "DARK_ON_LIGHT"
	MethodLightOnDark = "LIGHT_ON_DARK"
)

// ErrNoVariants signals that every enhancement technique failed; the scan
// attempt cannot proceed to OCR.
var ErrNoVariants = errors.New("enhance: no variants produced")

// Variant is one enhanced rendering of the capture. The Mat is owned by the
// caller once returned; Close it after extraction.
type Variant struct {
	Method string
	Mat    gocv.Mat

	closed bool
}

// Close releases the variant's pixel buffer. Safe to call more than once and
// on a zero-value Variant.
func (v *Variant) Close() {
	if v.closed {
		return
	}
	v.closed = true
	_ = v.Mat.Close()
}

// CloseAll releases every variant in the slice.
func CloseAll(variants []Variant) {
	for i := range variants {
		variants[i].Close()
	}
}

// Skip records a technique that was abandoned and why.
type Skip struct {
	Method string
	Err    error
}

// Options carries the enhancement tunables.
type Options struct {
	MinWidth       int
	MinHeight      int
	CLAHEClip      float64
	CLAHETile      int
	ThresholdBlock int // forced odd, minimum 3
	ThresholdC     float64
}

// DefaultOptions returns the values tuned for on-screen UI text.
func DefaultOptions() Options {
	return Options{
		MinWidth:       10,
		MinHeight:      10,
		CLAHEClip:      3.0,
		CLAHETile:      8,
		ThresholdBlock: 11,
		ThresholdC:     2.0,
	}
}

// Enhancer applies the fixed set of enhancement techniques.
type Enhancer struct {
	opts Options
}

// New creates an Enhancer, normalizing out-of-range options.
func New(opts Options) *Enhancer {
	if opts.ThresholdBlock < 3 {
		opts.ThresholdBlock = 3
	}
	if opts.ThresholdBlock%2 == 0 {
		opts.ThresholdBlock++
	}
	if opts.CLAHETile < 1 {
		opts.CLAHETile = 1
	}
	return &Enhancer{opts: opts}
}

// Enhance converts the capture to grayscale and applies each technique
// independently, returning the variants that succeeded and a skip record for
// each that did not. An undersized or empty input yields no variants.
func (e *Enhancer) Enhance(img gocv.Mat) ([]Variant, []Skip) {
	if img.Empty() || img.Cols() < e.opts.MinWidth || img.Rows() < e.opts.MinHeight {
		return nil, []Skip{{Method: "input", Err: fmt.Errorf("enhance: image %dx%d below minimum %dx%d",
			img.Cols(), img.Rows(), e.opts.MinWidth, e.opts.MinHeight)}}
	}

	gray := toGray(img)
	defer gray.Close()

	techniques := []struct {
		name  string
		apply func(gocv.Mat) gocv.Mat
	}{
		{MethodCLAHE, e.applyCLAHE},
		{MethodDarkOnLight, e.thresholdDarkOnLight},
		{MethodLightOnDark, e.thresholdLightOnDark},
	}

	var variants []Variant
	var skips []Skip
	for _, t := range techniques {
		mat, err := e.run(t.name, gray, t.apply)
		if err != nil {
			slog.Warn("enhancement technique skipped", "method", t.name, "error", err)
			skips = append(skips, Skip{Method: t.name, Err: err})
			continue
		}
		variants = append(variants, Variant{Method: t.name, Mat: mat})
	}
	return variants, skips
}

// run executes one technique plus post-processing, converting any OpenCV
// abort into that technique's failure. The named return is only ever
// assigned by the final return, so when the recover fires it is still the
// zero Mat and must not be touched; calling into OpenCV on it would crash
// the handler itself.
func (e *Enhancer) run(name string, gray gocv.Mat, apply func(gocv.Mat) gocv.Mat) (out gocv.Mat, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enhance: %s: %v", name, r)
		}
	}()

	enhanced := apply(gray)
	defer enhanced.Close()
	return e.postProcess(enhanced), nil
}

func toGray(img gocv.Mat) gocv.Mat {
	if img.Channels() == 1 {
		return img.Clone()
	}
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return gray
}

// applyCLAHE performs contrast-limited adaptive histogram equalization.
func (e *Enhancer) applyCLAHE(gray gocv.Mat) gocv.Mat {
	clahe := gocv.NewCLAHEWithParams(e.opts.CLAHEClip, image.Pt(e.opts.CLAHETile, e.opts.CLAHETile))
	defer clahe.Close()

	out := gocv.NewMat()
	clahe.Apply(gray, &out)
	return out
}

// thresholdDarkOnLight binarizes for dark text on a light background.
func (e *Enhancer) thresholdDarkOnLight(gray gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &out, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary,
		e.opts.ThresholdBlock, float32(e.opts.ThresholdC))
	return out
}

// thresholdLightOnDark is the inverse polarity for light text on dark.
func (e *Enhancer) thresholdLightOnDark(gray gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &out, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		e.opts.ThresholdBlock, float32(e.opts.ThresholdC))
	return out
}

// postProcess denoises then sharpens a variant. Grayscale images get a
// median blur; color images an edge-preserving bilateral filter.
func (e *Enhancer) postProcess(mat gocv.Mat) gocv.Mat {
	denoised := gocv.NewMat()
	defer denoised.Close()
	if mat.Channels() >= 3 {
		gocv.BilateralFilter(mat, &denoised, 9, 75, 75)
	} else {
		gocv.MedianBlur(mat, &denoised, 3)
	}

	sharpened := gocv.NewMat()
	kernel := sharpenKernel()
	defer kernel.Close()
	gocv.Filter2D(denoised, &sharpened, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	return sharpened
}

// sharpenKernel builds the fixed 3x3 convolution kernel: center 9, ring -1.
func sharpenKernel() gocv.Mat {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			k.SetFloatAt(r, c, -1)
		}
	}
	k.SetFloatAt(1, 1, 9)
	return k
}
