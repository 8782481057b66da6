package screen

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ArtifactStore writes debug images for a scan and rotates old ones so the
// directory never grows without bound.
type ArtifactStore struct {
	dir  string
	keep int
	now  func() time.Time
}

// NewArtifactStore creates the directory if needed. keep is the maximum
// number of PNG files retained; older files are pruned on each save.
func NewArtifactStore(dir string, keep int) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("screen: create artifact dir: %w", err)
	}
	if keep < 1 {
		keep = 1
	}
	return &ArtifactStore{dir: dir, keep: keep, now: time.Now}, nil
}

// Dir returns the artifact directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// SaveImage writes img as a timestamped PNG and prunes old files. The label
// becomes part of the filename, e.g. scan003_fullscreen.
func (s *ArtifactStore) SaveImage(label string, img image.Image) (string, error) {
	path := s.path(label)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("screen: save artifact: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("screen: encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("screen: close artifact: %w", err)
	}
	s.prune()
	return path, nil
}

// SavePNG writes already-encoded PNG bytes, used for enhancement variants
// that exist only as encoded buffers.
func (s *ArtifactStore) SavePNG(label string, data []byte) (string, error) {
	path := s.path(label)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("screen: save artifact: %w", err)
	}
	s.prune()
	return path, nil
}

func (s *ArtifactStore) path(label string) string {
	stamp := s.now().Format("20060102_150405.000")
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.png", stamp, label))
}

// prune deletes the oldest PNGs beyond the retention cap. Timestamped names
// sort chronologically, so lexical order is age order.
func (s *ArtifactStore) prune() {
	entries, err := filepath.Glob(filepath.Join(s.dir, "*.png"))
	if err != nil || len(entries) <= s.keep {
		return
	}
	sort.Strings(entries)
	for _, old := range entries[:len(entries)-s.keep] {
		if err := os.Remove(old); err != nil {
			slog.Debug("artifact prune failed", "path", old, "error", err)
		}
	}
}
