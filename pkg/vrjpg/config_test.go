package vrjpg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mkvrjpg.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *c != *DefaultConfig() {
		t.Errorf("got %+v, want defaults", *c)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
quality = 90
make = "Studio"
model = "Render"
initial_heading = 90.5
out_suffix = ".jpg"
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Quality != 90 || c.Make != "Studio" || c.Model != "Render" || c.InitialHeading != 90.5 {
		t.Errorf("unexpected config: %+v", *c)
	}
	if c.OutSuffix != ".jpg" {
		t.Errorf("OutSuffix = %q", c.OutSuffix)
	}
	if c.OutPrefix != DefaultConfig().OutPrefix {
		t.Errorf("OutPrefix = %q, want default", c.OutPrefix)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "qualty = 90\n", "qualty"},
		{"quality range", "quality = 0\n", "out of range"},
		{"empty suffix", "out_suffix = \"\"\n", "out_suffix"},
		{"syntax", "quality = \n", "parse config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("LoadConfig error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
