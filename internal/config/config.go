package config

import (
	"errors"        // Telling a missing default config apart
	"fmt"           // Wrapping errors with the config path
	"os"            // Reading the config file
	"path/filepath" // Resolving paths relative to the config
	"time"          // Durations such as the primitives TTL

	"gopkg.in/yaml.v3" // YAML parsing of config.yaml

	"github.com/nirtamir-cli/cli/internal/pkgmanager" // Validating packageManager
)

// Config is the user configuration read from config.yaml.
type Config struct {
	// PackageManager forces npm, yarn, pnpm or bun instead of detecting it.
	PackageManager string `yaml:"packageManager"`

	// Catalogs are extra integration packs: YAML files or archives of them.
	// Relative paths are resolved against the config file's directory.
	Catalogs []string `yaml:"catalogs"`

	Primitives Primitives `yaml:"primitives"`

	// State overrides where applied integrations are recorded.
	State string `yaml:"state"`
}

// Primitives configures the primitives catalog.
type Primitives struct {
	URL string   `yaml:"url"` // JSON catalog to fetch; empty uses the built-in list
	TTL Duration `yaml:"ttl"` // How long the cached catalog stays fresh; zero means 24h
}

// Duration is a time.Duration written as "24h" or "90m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: negative duration %q", node.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// Dir returns <user config dir>/nirtamir-cli.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nirtamir-cli"), nil
}

// DefaultPath returns the config.yaml inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig reads the config at path. An empty path means DefaultPath, and
// a missing default file yields the zero Config. A path given explicitly must
// exist. A file that exists but cannot be parsed is always an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.PackageManager != "" {
		if _, err := pkgmanager.Parse(cfg.PackageManager); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	base := filepath.Dir(path)
	for i, c := range cfg.Catalogs {
		if !filepath.IsAbs(c) {
			cfg.Catalogs[i] = filepath.Join(base, c)
		}
	}
	if cfg.State != "" && !filepath.IsAbs(cfg.State) {
		cfg.State = filepath.Join(base, cfg.State)
	}
	return cfg, nil
}
