// Command debugocr runs the enhancement and OCR pipeline over a saved image
// so detection problems can be reproduced offline, without a live screen.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"

	"continue-clicker/internal/config"
	"continue-clicker/internal/detect"
	"continue-clicker/internal/enhance"
	"continue-clicker/internal/logger"
	"continue-clicker/internal/ocr"
)

func main() {
	var (
		imagePath     = flag.String("image", "", "path to the capture to analyze (png or tiff)")
		pattern       = flag.String("pattern", config.DefaultTargetPattern, "target phrase regex")
		endWord       = flag.String("end-word", config.DefaultEndWord, "terminal word to locate")
		minConfidence = flag.Float64("min-confidence", 15, "minimum word confidence")
		verbose       = flag.Bool("v", false, "print every detection, not just matches")
	)
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := logger.Init("", "warn"); err != nil {
		log.Fatal(err)
	}
	if err := run(*imagePath, *pattern, *endWord, *minConfidence, *verbose); err != nil {
		log.Fatal(err)
	}
}

func run(path, pattern, endWord string, minConfidence float64, verbose bool) error {
	img, err := readImage(path)
	if err != nil {
		return err
	}
	defer img.Close()
	fmt.Printf("image: %s (%dx%d)\n", path, img.Cols(), img.Rows())

	enhancer := enhance.New(enhance.DefaultOptions())
	variants, skips := enhancer.Enhance(img)
	for _, s := range skips {
		fmt.Printf("enhancement skipped: %s: %v\n", s.Method, s.Err)
	}
	if len(variants) == 0 {
		return enhance.ErrNoVariants
	}
	defer enhance.CloseAll(variants)

	engine, err := ocr.NewEngine(minConfidence)
	if err != nil {
		return err
	}
	defer engine.Close()

	var pool []detect.Detection
	for _, v := range variants {
		dets, err := engine.ExtractVariant(v)
		if err != nil {
			fmt.Printf("ocr failed for %s: %v\n", v.Method, err)
			continue
		}
		fmt.Printf("%s: %d detections\n", v.Method, len(dets))
		pool = append(pool, dets...)
	}

	unique := detect.Dedupe(pool, 20)
	fmt.Printf("pooled %d detections, %d unique\n", len(pool), len(unique))
	if verbose {
		for _, d := range unique {
			fmt.Printf("  %-20q conf=%5.1f center=(%d,%d) %s/%s\n",
				d.Text, d.Confidence, d.Center.X, d.Center.Y, d.Method, d.OCRConfig)
		}
	}

	locator, err := detect.NewLocator(pattern, endWord)
	if err != nil {
		return err
	}
	coords := detect.MergeCoordinates(locator.Locate(unique), 5)
	if len(coords) == 0 {
		fmt.Println("pattern not found")
		return nil
	}
	fmt.Println("pattern found, click targets:")
	for _, p := range coords {
		fmt.Printf("  (%d, %d)\n", p.X, p.Y)
	}
	return nil
}

// readImage loads through OpenCV first and falls back to the Go decoders for
// formats OpenCV was built without.
func readImage(path string) (gocv.Mat, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if !mat.Empty() {
		return mat, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return gocv.ImageToMatRGB(img)
}
