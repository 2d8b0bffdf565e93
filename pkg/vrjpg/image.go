package vrjpg

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder.
	"os"

	"k8s.io/klog/v2"
)

var (
	// ErrMissing means the path does not exist or is not a regular file.
	ErrMissing = errors.New("does not exist or is not a file")
	// ErrNotJPEG means the file content is not a JPEG image.
	ErrNotJPEG = errors.New("is not a jpeg image")
)

// Image is a validated JPEG file on disk.
type Image struct {
	Path   string
	Width  int
	Height int
}

// Check verifies that path is a regular file holding a JPEG image and
// returns its dimensions.
func Check(path string) (*Image, error) {
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s %w", path, ErrMissing)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, format, err := image.DecodeConfig(f)
	if err != nil || format != "jpeg" {
		klog.V(1).Infof("%s: format=%q err=%v", path, format, err)
		return nil, fmt.Errorf("%s %w", path, ErrNotJPEG)
	}

	return &Image{Path: path, Width: ic.Width, Height: ic.Height}, nil
}
