package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const ManifestName = "viper.toml"

const (
	DefaultEntry         = "main"
	DefaultMaxIterations = 32
)

// Manifest is a parsed viper.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package     PackageConfig     `toml:"package"`
	Build       BuildConfig       `toml:"build"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	Entry         string `toml:"entry"`
	MaxIterations int    `toml:"max_iterations"`
	Jobs          int    `toml:"jobs"`
}

type DiagnosticsConfig struct {
	Reporting        bool `toml:"reporting"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
	Max              int  `toml:"max"`
}

// DefaultConfig is what a project without viper.toml gets.
func DefaultConfig() Config {
	return Config{
		Build: BuildConfig{
			Entry:         DefaultEntry,
			MaxIterations: DefaultMaxIterations,
		},
		Diagnostics: DiagnosticsConfig{Reporting: true},
	}
}

// FindManifest walks up from startDir to locate viper.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing viper.toml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// LoadManifest finds and parses the manifest governing startDir. A missing
// manifest is not an error: ok is false and the caller uses DefaultConfig.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig parses one viper.toml; unset keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("package") && strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	cfg.Build.Entry = strings.TrimSpace(cfg.Build.Entry)
	if cfg.Build.Entry == "" {
		return Config{}, fmt.Errorf("%s: [build].entry must not be empty", path)
	}
	if cfg.Build.MaxIterations <= 0 {
		return Config{}, fmt.Errorf("%s: [build].max_iterations must be positive", path)
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	if cfg.Diagnostics.Max < 0 {
		return Config{}, fmt.Errorf("%s: [diagnostics].max must not be negative", path)
	}
	return cfg, nil
}
