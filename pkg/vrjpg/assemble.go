package vrjpg

import (
	"errors"
	"fmt"
	"os"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// ErrOutputExists is returned when the requested output file already exists.
var ErrOutputExists = errors.New("output file already exists")

// outputPerm is the mode of output files created under a generated name.
const outputPerm = 0o644

// copyOptions copy the file a symlink points to, and leave the mode of the
// output to its creator rather than the (possibly temporary) source.
var copyOptions = copy.Options{
	OnSymlink:         func(string) copy.SymlinkAction { return copy.Deep },
	PermissionControl: copy.DoNothing,
}

// Make assembles a VR JPEG from src and returns its path. If out is empty a
// new file is created in c.OutDir (or the working directory). Temporary eye
// images are removed before Make returns, and on error so is the output.
func Make(c *Config, src Source, out string) (_ string, err error) {
	var tmp tempFiles
	defer tmp.cleanup()

	for _, p := range src.Paths() {
		if _, err := Check(p); err != nil {
			return "", err
		}
	}

	out, err = prepareOutput(c, out)
	if err != nil {
		return "", err
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := os.Remove(out); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			klog.Warningf("unable to remove %s: %v", out, rerr)
		}
	}()

	var left, right string
	switch s := src.(type) {
	case Mono:
		klog.Infof("copying mono image %s -> %s", s.Path, out)
		if err := copy.Copy(s.Path, out, copyOptions); err != nil {
			return "", fmt.Errorf("copy: %w", err)
		}
	case Stereo:
		if left, err = tmp.create(c.TempDir, "mkvrjpg-*-left.jpg"); err != nil {
			return "", err
		}
		if right, err = tmp.create(c.TempDir, "mkvrjpg-*-right.jpg"); err != nil {
			return "", err
		}
		if err := SplitFile(s.Path, left, right, c.Quality); err != nil {
			return "", fmt.Errorf("split: %w", err)
		}
	case Pair:
		left, right = s.Left, s.Right
	default:
		return "", fmt.Errorf("unsupported source %T", src)
	}

	if left != "" {
		if err := copyBase(left, right, out); err != nil {
			return "", err
		}
	}

	if err := WriteMetadata(c, out, left, right); err != nil {
		return "", fmt.Errorf("metadata: %w", err)
	}

	if c.Verify {
		if err := verify(c, out); err != nil {
			return "", fmt.Errorf("verify: %w", err)
		}
	}

	klog.Infof("VR image saved to: %s", out)
	return out, nil
}

// prepareOutput returns the output path, refusing to reuse an existing file.
func prepareOutput(c *Config, out string) (string, error) {
	if out != "" {
		_, err := os.Lstat(out)
		if err == nil {
			return "", fmt.Errorf("%w: %s", ErrOutputExists, out)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat output: %w", err)
		}
		return out, nil
	}

	dir := c.OutDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = wd
	}
	f, err := os.CreateTemp(dir, c.OutPrefix+"*"+c.OutSuffix)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if err := f.Chmod(outputPerm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("chmod output: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close output: %w", err)
	}
	return f.Name(), nil
}

// copyBase validates the eye images and copies the left one to out.
func copyBase(left, right, out string) error {
	l, err := Check(left)
	if err != nil {
		return err
	}
	r, err := Check(right)
	if err != nil {
		return err
	}
	if l.Width != r.Width || l.Height != r.Height {
		klog.Warningf("eye images differ in size: %dx%d (left) vs %dx%d (right)", l.Width, l.Height, r.Width, r.Height)
	}

	klog.Infof("copying left eye %s -> %s", left, out)
	if err := copy.Copy(left, out, copyOptions); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
