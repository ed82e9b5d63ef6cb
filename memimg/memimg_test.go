package memimg

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writePNG(t *testing.T, path string, size int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirScalesTiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "food.png"), 64, color.RGBA{255, 255, 0, 255})
	writePNG(t, filepath.Join(dir, "background.png"), 32, color.RGBA{0, 0, 80, 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(20, zerolog.Nop())
	if err := s.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	food, ok := s.Get(TileFood)
	if !ok {
		t.Fatal("food tile not loaded")
	}
	if b := food.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("expected 20x20 food tile, got %v", b)
	}
	if _, ok := s.Get("notes"); ok {
		t.Fatal("non-image file should be ignored")
	}

	bg, ok := s.Background(400, 300)
	if !ok {
		t.Fatal("background not loaded")
	}
	if b := bg.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("expected 400x300 background, got %v", b)
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	s := NewStore(20, zerolog.Nop())
	if err := s.LoadDir(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing directory should be ignored, got %v", err)
	}
	if _, ok := s.Background(10, 10); ok {
		t.Fatal("unexpected background")
	}
}

func TestWatchReloadsTiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(16, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, dir) }()

	// 等待 watcher 就绪后再写文件
	deadline := time.Now().Add(3 * time.Second)
	tmp := filepath.Join(dir, "head.tmp")
	for {
		writePNG(t, tmp, 8, color.RGBA{255, 0, 0, 255})
		if err := os.Rename(tmp, filepath.Join(dir, "head.png")); err != nil {
			t.Fatal(err)
		}
		if img, ok := s.Get(TileHead); ok {
			if b := img.Bounds(); b.Dx() != 16 {
				t.Fatalf("expected 16px tile, got %v", b)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tile was not picked up by the watcher")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := os.Remove(filepath.Join(dir, "head.png")); err != nil {
		t.Fatal(err)
	}
	for {
		if _, ok := s.Get(TileHead); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("removed tile still cached")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
