package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResolverConfig configures the layered resolver.
type ResolverConfig struct {
	// EnvPrefix is prepended to upper-cased key names for environment lookup,
	// so with "SCRUMSIM_" the key "synth_url" reads SCRUMSIM_SYNTH_URL.
	EnvPrefix string

	// GlobalConfigDir is the directory under ~/.config holding the global file.
	GlobalConfigDir string

	// GlobalConfigFile defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the file name looked up in the git root.
	LocalConfigName string

	// Defaults provides the lowest-priority values. Its keys are also the
	// keys checked in the environment.
	Defaults map[string]string

	// ValidKeys restricts which file keys are accepted. Nil accepts all.
	ValidKeys []string

	// GitRootFinder overrides git root detection.
	GitRootFinder func(startDir string) (string, error)

	// ErrWriter receives warnings. Defaults to os.Stderr.
	ErrWriter io.Writer
}

func (c ResolverConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// Resolver merges configuration from defaults, files, the environment and
// flags.
type Resolver struct {
	config     ResolverConfig
	globalPath string
	localPath  string
	gitRoot    string

	// Warnings collects non-fatal issues such as unparsable files.
	Warnings []string
}

// NewResolver creates a resolver, locating the git root and global file.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{config: cfg}
	if r.config.ErrWriter == nil {
		r.config.ErrWriter = os.Stderr
	}

	find := cfg.GitRootFinder
	if find == nil {
		find = func(dir string) (string, error) { return findGitRoot(dir), nil }
	}
	if root, err := find("."); err == nil && root != "" {
		r.gitRoot = root
		if cfg.LocalConfigName != "" {
			r.localPath = filepath.Join(root, cfg.LocalConfigName)
		}
	}

	if cfg.GlobalConfigDir != "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.globalPath = filepath.Join(home, ".config", cfg.GlobalConfigDir, cfg.globalConfigFile())
		}
	}
	return r
}

// NewResolverWithPaths creates a resolver with explicit file paths.
func NewResolverWithPaths(cfg ResolverConfig, globalPath, localPath string) *Resolver {
	r := &Resolver{config: cfg, globalPath: globalPath, localPath: localPath}
	if r.config.ErrWriter == nil {
		r.config.ErrWriter = os.Stderr
	}
	return r
}

func (r *Resolver) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	if r.config.ErrWriter != nil {
		fmt.Fprintf(r.config.ErrWriter, "Warning: %s\n", msg)
	}
}

// Resolved holds merged configuration and where each value came from.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

func (c *Resolved) set(key, value string, src Source) {
	c.values[key] = value
	c.sources[key] = src
}

// Get returns the value for a key, or "" if not set.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// Source returns where a key's value came from.
func (c *Resolved) Source(key string) Source {
	return c.sources[key]
}

// GetWithSource returns both the value and its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// All returns a copy of all key-value pairs.
func (c *Resolved) All() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Keys returns all keys in sorted order.
func (c *Resolved) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Resolve merges defaults < global < local < env.
func (r *Resolver) Resolve() *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}

	for key, value := range r.config.Defaults {
		cfg.set(key, value, SourceDefault)
	}
	r.applyFile(cfg, r.globalPath, SourceGlobal)
	r.applyFile(cfg, r.localPath, SourceLocal)
	r.applyEnv(cfg)
	return cfg
}

// ResolveWithFlags resolves and then applies non-empty flag values on top.
func (r *Resolver) ResolveWithFlags(flags map[string]string) *Resolved {
	cfg := r.Resolve()
	for key, value := range flags {
		if value != "" {
			cfg.set(key, value, SourceFlag)
		}
	}
	return cfg
}

func (r *Resolver) applyFile(cfg *Resolved, path string, src Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	for key, value := range parsed {
		if len(r.config.ValidKeys) > 0 && !slices.Contains(r.config.ValidKeys, key) {
			r.warn(fmt.Sprintf("ignoring unknown key %q in %s", key, path))
			continue
		}
		if s := toString(value); s != "" {
			cfg.set(key, s, src)
		}
	}
}

func (r *Resolver) applyEnv(cfg *Resolved) {
	if r.config.EnvPrefix == "" {
		return
	}
	for key := range cfg.values {
		if value := os.Getenv(r.EnvName(key)); value != "" {
			cfg.set(key, value, SourceEnv)
		}
	}
}

// EnvName returns the environment variable consulted for key.
func (r *Resolver) EnvName(key string) string {
	return r.config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// GitRoot returns the detected git root directory.
func (r *Resolver) GitRoot() string {
	return r.gitRoot
}

// GlobalPath returns the path to the global config file.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// LocalPath returns the path to the local config file.
func (r *Resolver) LocalPath() string {
	return r.localPath
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// findGitRoot walks up from startDir looking for a .git directory.
func findGitRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
