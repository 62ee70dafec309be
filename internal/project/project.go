// Package project loads the per-project corrosion.yml configuration: the
// entry module, source roots, macro expansion depth and emit targets. The
// compiler core never reads it; the CLI and server resolve a Config and
// pass the relevant values down.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/corrosion-lang/corrosion/internal/config"
)

// Config is the top-level corrosion.yml structure.
type Config struct {
	// Entry is the module path compilation starts from. Defaults to "main".
	Entry string `yaml:"entry,omitempty"`

	// SourceRoots lists directories searched for .crn files, relative to
	// the config file. Defaults to ["."].
	SourceRoots []string `yaml:"source_roots,omitempty"`

	// MacroDepth overrides the expansion recursion cap when positive.
	MacroDepth int `yaml:"macro_depth,omitempty"`

	// Emit lists additional artifacts build produces ("ir", "es", "native").
	Emit []string `yaml:"emit,omitempty"`

	// Cache toggles the sqlite build cache. Defaults to on.
	Cache *bool `yaml:"cache,omitempty"`

	// Dir is the directory the config was loaded from; not part of the
	// yaml surface.
	Dir string `yaml:"-"`
}

// CacheEnabled reports the cache toggle with its default applied.
func (c *Config) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// Load reads and parses a corrosion.yml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse parses corrosion.yml content. The path argument is used only for
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find walks from dir up to the filesystem root looking for corrosion.yml.
// An empty path with nil error means no config exists, which is fine: every
// setting has a default.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, config.ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Default returns the configuration used when no corrosion.yml exists.
func Default(dir string) *Config {
	cfg := &Config{Dir: dir}
	cfg.setDefaults()
	return cfg
}

func (c *Config) validate(path string) error {
	for _, target := range c.Emit {
		switch target {
		case "ir", "es", "native":
		default:
			return fmt.Errorf("%s: unknown emit target %q", path, target)
		}
	}
	if c.MacroDepth < 0 {
		return fmt.Errorf("%s: macro_depth must be positive", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Entry == "" {
		c.Entry = "main"
	}
	if len(c.SourceRoots) == 0 {
		c.SourceRoots = []string{"."}
	}
	if c.MacroDepth == 0 {
		c.MacroDepth = config.DefaultMacroDepth
	}
}
