package vrjpg

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// ErrUnknownLayout is returned for combined images that are neither square
// nor four times as wide as they are high.
var ErrUnknownLayout = errors.New("unknown stereo image layout")

// Layout describes how a combined stereo image stores its two eyes.
type Layout int

const (
	LayoutUnknown Layout = iota
	// LayoutTopBottom has the left eye on top of the right eye.
	LayoutTopBottom
	// LayoutSideBySide has the left eye left of the right eye.
	LayoutSideBySide
)

func (l Layout) String() string {
	switch l {
	case LayoutTopBottom:
		return "top-bottom"
	case LayoutSideBySide:
		return "side-by-side"
	}
	return "unknown"
}

// DetectLayout infers the layout of a w x h combined stereo image.
func DetectLayout(w, h int) Layout {
	switch {
	case w <= 0 || h <= 0:
		return LayoutUnknown
	case w == h:
		return LayoutTopBottom
	case w == 4*h:
		return LayoutSideBySide
	}
	return LayoutUnknown
}

// eyeRects returns the left and right eye regions of a w x h image.
func eyeRects(w, h int) (image.Rectangle, image.Rectangle, error) {
	switch DetectLayout(w, h) {
	case LayoutTopBottom:
		return image.Rect(0, 0, w, h/2), image.Rect(0, h/2, w, h), nil
	case LayoutSideBySide:
		return image.Rect(0, 0, w/2, h), image.Rect(w/2, 0, w, h), nil
	}
	return image.Rectangle{}, image.Rectangle{}, fmt.Errorf("%w: %d x %d", ErrUnknownLayout, w, h)
}

// Split returns the left and right eye images of a combined stereo image.
func Split(img image.Image) (image.Image, image.Image, error) {
	b := img.Bounds()
	lr, rr, err := eyeRects(b.Dx(), b.Dy())
	if err != nil {
		return nil, nil, err
	}
	lr = lr.Add(b.Min)
	rr = rr.Add(b.Min)
	return transform.Crop(img, lr), transform.Crop(img, rr), nil
}

// SplitFile splits the combined stereo JPEG at path into two JPEG files.
// Nothing is written when the layout is not recognized.
func SplitFile(path, leftPath, rightPath string, quality int) error {
	img, err := imgio.Open(path)
	if err != nil {
		return fmt.Errorf("imgio.Open: %w", err)
	}

	left, right, err := Split(img)
	if err != nil {
		return err
	}
	klog.Infof("split %s (%v) into %v left and %v right eye images",
		path, img.Bounds().Size(), left.Bounds().Size(), right.Bounds().Size())

	enc := imgio.JPEGEncoder(quality)
	if err := imgio.Save(leftPath, left, enc); err != nil {
		return fmt.Errorf("save left: %w", err)
	}
	if err := imgio.Save(rightPath, right, enc); err != nil {
		return fmt.Errorf("save right: %w", err)
	}
	return nil
}
