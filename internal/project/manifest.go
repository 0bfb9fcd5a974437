package project

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"mcc/internal/target"
	"mcc/internal/trace"
)

// Manifest is a loaded mcc.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the sections of mcc.toml.
type Config struct {
	Build BuildConfig `toml:"build"`
	Trace TraceConfig `toml:"trace"`
}

type BuildConfig struct {
	Target           string   `toml:"target"`
	Jobs             int      `toml:"jobs"`
	MaxDiagnostics   int      `toml:"max_diagnostics"`
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	DiskCache        bool     `toml:"disk_cache"`
	Sources          []string `toml:"sources"`
	OutputDir        string   `toml:"output_dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Load finds mcc.toml above startDir and decodes it. ok is false when
// no manifest exists.
func Load(startDir string) (*Manifest, bool, error) {
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

// LoadConfig decodes and validates a manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
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
	if meta.IsDefined("build", "target") {
		if _, err := target.Parse(cfg.Build.Target); err != nil {
			return Config{}, fmt.Errorf("%s: [build].target: %w", path, err)
		}
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	if cfg.Build.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [build].max_diagnostics must not be negative", path)
	}
	if meta.IsDefined("trace", "level") {
		if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
			return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
		}
	}
	return cfg, nil
}

// SourceFiles expands [build].sources, which are globs relative to the
// project root. The result is sorted and free of duplicates.
func (m *Manifest) SourceFiles() ([]string, error) {
	var files []string
	for _, pattern := range m.Config.Build.Sources {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(m.Root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("%s: bad source pattern %q: %w", m.Path, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: source pattern %q matches no files", m.Path, pattern)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// OutputDir resolves [build].output_dir against the project root.
func (m *Manifest) OutputDir() string {
	dir := strings.TrimSpace(m.Config.Build.OutputDir)
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}
