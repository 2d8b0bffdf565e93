package vrjpg

import (
	"errors"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

// tempFiles tracks files created during a run so they can be removed when
// the run returns.
type tempFiles struct {
	paths []string
}

// create makes an empty file in dir named by pattern (see os.CreateTemp).
func (t *tempFiles) create(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	t.paths = append(t.paths, f.Name())
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp: %w", err)
	}
	return f.Name(), nil
}

// cleanup removes every tracked file. Errors are logged, not returned.
func (t *tempFiles) cleanup() {
	for _, p := range t.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			klog.Warningf("unable to remove %s: %v", p, err)
			continue
		}
		klog.V(1).Infof("removed %s", p)
	}
	t.paths = nil
}
