package vrjpg

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// writeJPEG saves a w x h JPEG to dir/name, colouring each pixel with fill.
func writeJPEG(t *testing.T, dir, name string, w, h int, fill func(x, y int) color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	path := filepath.Join(dir, name)
	if err := imgio.Save(path, img, imgio.JPEGEncoder(95)); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

func solid(c color.Color) func(int, int) color.Color {
	return func(int, int) color.Color { return c }
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	jpg := writeJPEG(t, dir, "ok.jpg", 40, 20, solid(red))

	txt := filepath.Join(dir, "notes.jpg")
	if err := os.WriteFile(txt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	png := filepath.Join(dir, "image.png")
	if err := imgio.Save(png, image.NewRGBA(image.Rect(0, 0, 4, 4)), imgio.PNGEncoder()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"jpeg", jpg, nil},
		{"missing", filepath.Join(dir, "missing.jpg"), ErrMissing},
		{"directory", dir, ErrMissing},
		{"text", txt, ErrNotJPEG},
		{"png", png, ErrNotJPEG},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Check(tc.path)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Check(%s) error = %v, want %v", tc.path, err, tc.want)
			}
			if tc.want != nil {
				return
			}
			if img.Width != 40 || img.Height != 20 {
				t.Errorf("got %dx%d, want 40x20", img.Width, img.Height)
			}
		})
	}
}
