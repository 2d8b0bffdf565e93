package vrjpg

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/archviz-vr-tools/mkvrjpg/pkg/xmp"
)

// EmbeddedMime is the GImage:Mime of embedded eye images.
const EmbeddedMime = "image/jpeg"

var namespaces = []struct {
	uri    string
	prefix string
}{
	{xmp.NSGPano, "GPano"},
	{xmp.NSGImage, "GImage"},
	{xmp.NSGAudio, "GAudio"},
	{xmp.NSTIFF, "tiff"},
}

// Panorama is the geometry written to the GPano namespace.
type Panorama struct {
	CroppedLeft    int
	CroppedTop     int
	CroppedWidth   int
	CroppedHeight  int
	FullWidth      int
	FullHeight     int
	InitialHeading float64
}

// NewPanorama returns the geometry for a w x h output image. The full
// panorama height assumes a 2:1 equirectangular panorama and is derived from
// the width alone.
func NewPanorama(w, h int, heading float64) Panorama {
	return Panorama{
		CroppedWidth:   w,
		CroppedHeight:  h,
		FullWidth:      w,
		FullHeight:     w / 2,
		InitialHeading: heading,
	}
}

// BuildPacket sets the panorama, image and embedded-image properties on p.
// Each eye is embedded in order; GImage is single-valued, so the last eye
// given is the one that remains.
func BuildPacket(c *Config, p *xmp.Packet, w, h int, eyes ...[]byte) error {
	for _, ns := range namespaces {
		if _, ok := p.Prefix(ns.uri); ok {
			continue
		}
		if err := p.RegisterNamespace(ns.uri, ns.prefix); err != nil {
			return fmt.Errorf("register %s: %w", ns.prefix, err)
		}
	}

	pano := NewPanorama(w, h, c.InitialHeading)
	p.SetInt(xmp.NSGPano, "CroppedAreaLeftPixels", pano.CroppedLeft)
	p.SetInt(xmp.NSGPano, "CroppedAreaTopPixels", pano.CroppedTop)
	p.SetInt(xmp.NSGPano, "CroppedAreaImageWidthPixels", pano.CroppedWidth)
	p.SetInt(xmp.NSGPano, "CroppedAreaImageHeightPixels", pano.CroppedHeight)
	p.SetInt(xmp.NSGPano, "FullPanoWidthPixels", pano.FullWidth)
	p.SetInt(xmp.NSGPano, "FullPanoHeightPixels", pano.FullHeight)
	p.SetFloat(xmp.NSGPano, "InitialViewHeadingDegrees", pano.InitialHeading)

	p.SetInt(xmp.NSTIFF, "ImageWidth", w)
	p.SetInt(xmp.NSTIFF, "ImageHeight", h)
	p.SetInt(xmp.NSTIFF, "Orientation", 0)
	p.SetString(xmp.NSTIFF, "Make", c.Make)
	p.SetString(xmp.NSTIFF, "Model", c.Model)

	for _, eye := range eyes {
		p.SetString(xmp.NSGImage, "Mime", EmbeddedMime)
		p.SetString(xmp.NSGImage, "Data", base64.StdEncoding.EncodeToString(eye))
	}
	return nil
}

// WriteMetadata tags the JPEG at out as a VR panorama, embedding the eye
// images at the given paths (empty paths are skipped). Nothing is written
// unless the whole packet can be committed.
func WriteMetadata(c *Config, out string, eyes ...string) error {
	img, err := Check(out)
	if err != nil {
		return err
	}

	var data [][]byte
	for _, path := range eyes {
		if path == "" {
			continue
		}
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read eye image: %w", err)
		}
		klog.V(1).Infof("embedding %s (%s)", path, humanize.Bytes(uint64(len(bs))))
		data = append(data, bs)
	}

	f, err := xmp.Open(out)
	if err != nil {
		return err
	}
	p := f.Packet()
	if err := BuildPacket(c, p, img.Width, img.Height, data...); err != nil {
		return err
	}

	if err := f.CanPut(p); err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}
	if err := f.Put(p); err != nil {
		return fmt.Errorf("put xmp: %w", err)
	}
	return nil
}
