// Package vrjpg assembles stereoscopic VR panorama JPEGs from left and right
// eye images.
package vrjpg

// Config holds configuration for vrjpg.
type Config struct {
	// Quality is the JPEG quality used for split eye images.
	Quality int `toml:"quality"`
	// Make and Model are written as tiff:Make and tiff:Model.
	Make  string `toml:"make"`
	Model string `toml:"model"`
	// InitialHeading is GPano:InitialViewHeadingDegrees.
	InitialHeading float64 `toml:"initial_heading"`

	TempDir   string `toml:"temp_dir"`
	OutDir    string `toml:"out_dir"`
	OutPrefix string `toml:"out_prefix"`
	OutSuffix string `toml:"out_suffix"`

	// Verify reads the output back with exiftool.
	Verify bool `toml:"verify"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Quality:        75,
		Make:           "mkvrjpg",
		InitialHeading: 180,
		OutPrefix:      "mkvrjpg-",
		OutSuffix:      ".vr.jpg",
	}
}
