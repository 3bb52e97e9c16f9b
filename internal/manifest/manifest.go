// Package manifest loads the YAML document describing a pool of children
// for the procpool CLI to spawn: supervisor options plus the command lines
// to launch.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for strict YAML decoding of textual
// durations like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a textual duration, accepting an empty string as
// zero.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// Manifest is the top-level pool document.
type Manifest struct {
	MaxKids  int      `yaml:"maxKids"`
	Timeout  Duration `yaml:"timeout"`
	Backend  string   `yaml:"backend"`
	Debug    bool     `yaml:"debug"`
	Children []Child  `yaml:"children"`
}

// Child is one entry in the manifest's child list.
type Child struct {
	ID      string         `yaml:"id"`
	Cmdline []string       `yaml:"cmdline"`
	Extra   map[string]any `yaml:"extra"`
}

// Load reads and strictly decodes a pool manifest from path.
func Load(path string) (*Manifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &m, nil
}

// Validate enforces the manifest's basic invariants.
func (m *Manifest) Validate() error {
	if m.MaxKids < 0 {
		return fmt.Errorf("maxKids: must be non-negative")
	}
	if m.Timeout.Duration < 0 {
		return fmt.Errorf("timeout: must be non-negative")
	}
	if len(m.Children) == 0 {
		return fmt.Errorf("children: must define at least one entry")
	}
	seen := make(map[string]bool, len(m.Children))
	for i, c := range m.Children {
		if len(c.Cmdline) == 0 {
			return fmt.Errorf("children[%d]: cmdline must contain at least one entry", i)
		}
		if c.ID != "" {
			if seen[c.ID] {
				return fmt.Errorf("children[%d]: duplicate id %q", i, c.ID)
			}
			seen[c.ID] = true
		}
	}
	return nil
}
