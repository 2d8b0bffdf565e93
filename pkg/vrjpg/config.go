package vrjpg

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"k8s.io/klog/v2"
)

// LoadConfig returns the default configuration overlaid with the TOML file at
// path. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	if err := d.Decode(c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("parse config: %s", sme.String())
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	klog.V(1).Infof("loaded config from %s: %+v", path, *c)
	return c, nil
}

// Validate checks c for values that cannot produce a usable image.
func (c *Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality %d out of range [1, 100]", c.Quality)
	}
	if c.OutSuffix == "" {
		return errors.New("out_suffix must not be empty")
	}
	return nil
}
