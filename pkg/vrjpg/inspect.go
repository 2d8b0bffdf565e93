package vrjpg

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/archviz-vr-tools/mkvrjpg/pkg/xmp"
)

// ErrNoEmbeddedImage is returned for files without GImage:Data.
var ErrNoEmbeddedImage = errors.New("no embedded image")

// Info is the VR metadata of a file as reported by exiftool.
type Info struct {
	Path         string
	Panorama     Panorama
	Make         string
	Model        string
	EmbeddedMime string
}

// Inspector reads VR metadata with a long-running exiftool process.
type Inspector struct {
	et *exiftool.Exiftool
}

// NewInspector starts exiftool. Close must be called when done.
func NewInspector() (*Inspector, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &Inspector{et: et}, nil
}

// Close stops the exiftool process.
func (in *Inspector) Close() error {
	return in.et.Close()
}

// Inspect reads the VR metadata of a single file.
func Inspect(path string) (*Info, error) {
	in, err := NewInspector()
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return in.Inspect(path)
}

// Inspect reads the VR metadata of path.
func (in *Inspector) Inspect(path string) (*Info, error) {
	fis := in.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return nil, fmt.Errorf("no metadata for %s", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v\n", k, v)
	}

	i := &Info{Path: path}
	ints := []struct {
		key string
		dst *int
	}{
		{"CroppedAreaLeftPixels", &i.Panorama.CroppedLeft},
		{"CroppedAreaTopPixels", &i.Panorama.CroppedTop},
		{"CroppedAreaImageWidthPixels", &i.Panorama.CroppedWidth},
		{"CroppedAreaImageHeightPixels", &i.Panorama.CroppedHeight},
		{"FullPanoWidthPixels", &i.Panorama.FullWidth},
		{"FullPanoHeightPixels", &i.Panorama.FullHeight},
	}
	for _, f := range ints {
		v, err := fi.GetInt(f.key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", f.key, err)
		}
		*f.dst = int(v)
	}

	var err error
	i.Panorama.InitialHeading, err = fi.GetFloat("InitialViewHeadingDegrees")
	if err != nil {
		klog.V(1).Infof("unable to get initial heading for %s: %v", path, err)
	}

	i.Make, err = fi.GetString("Make")
	if err != nil {
		klog.V(1).Infof("unable to get make for %s: %v", path, err)
	}

	i.Model, err = fi.GetString("Model")
	if err != nil {
		klog.V(1).Infof("unable to get model for %s: %v", path, err)
	}

	i.EmbeddedMime, err = fi.GetString("ImageMimeType")
	if err != nil {
		klog.V(1).Infof("no embedded image in %s: %v", path, err)
	}

	return i, nil
}

// verify reads out back and compares its geometry with what was written.
func verify(c *Config, out string) error {
	img, err := Check(out)
	if err != nil {
		return err
	}
	i, err := Inspect(out)
	if err != nil {
		return err
	}
	want := NewPanorama(img.Width, img.Height, c.InitialHeading)
	if i.Panorama != want {
		return fmt.Errorf("%s: read back %+v, want %+v", out, i.Panorama, want)
	}
	klog.Infof("verified %s: %+v", out, i.Panorama)
	return nil
}

// EmbeddedImage returns the decoded GImage:Data of the JPEG at path.
func EmbeddedImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	p, err := xmp.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read xmp: %w", err)
	}
	data, ok := p.Get(xmp.NSGImage, "Data")
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoEmbeddedImage)
	}
	bs, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode GImage:Data: %w", err)
	}
	return bs, nil
}

// Find returns the JPEG files below root, skipping hidden files and
// directories.
func Find(root string) ([]string, error) {
	found := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".jpg" || ext == ".jpeg" {
				klog.V(1).Infof("found %s", path)
				found = append(found, path)
			}
			return nil
		},
	})
	return found, err
}
