package screen

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestArtifactStoreSaveAndPrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir, 3)
	if err != nil {
		t.Fatal(err)
	}
	clock := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i := 0; i < 5; i++ {
		if _, err := store.SaveImage("fullscreen", frame(20, 20)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("kept %d files, want 3", len(files))
	}
}

func TestArtifactStoreSavePNG(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir, 10)
	if err != nil {
		t.Fatal(err)
	}
	path, err := store.SavePNG("variant_clahe", []byte("\x89PNG\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("artifact file is empty")
	}
}

func TestArtifactStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "shots")
	if _, err := NewArtifactStore(dir, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}
