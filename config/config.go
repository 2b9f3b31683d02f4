// Package config holds the compiler configuration: the tier compatibility
// matrix, per-language defaults, emission switches and logging.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/jamc/callgraph"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/logger"
	"github.com/viant/jamc/translator"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// MinRuntimeVersion is the oldest runtime the generated glue targets.
const MinRuntimeVersion = "v2.0.0"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is the compiler configuration.
	Config struct {
		RuntimeVersion   string                      `yaml:"runtimeVersion"`
		DefaultTiers     map[jam.Language]string     `yaml:"defaultTiers,omitempty"`
		Matrix           *Matrix                     `yaml:"matrix,omitempty"`
		Externals        map[jam.Language]*Externals `yaml:"externals,omitempty"`
		EntryPoints      []string                    `yaml:"entryPoints,omitempty"` // qualified, in addition to main, jtasks and the JS body
		CheckSideEffects bool                        `yaml:"checkSideEffects"`
		Yields           bool                        `yaml:"yields"`
		HeaderExternals  bool                        `yaml:"headerExternals"`          // undeclared C calls are opaque when a header is included
		LineDirectives   string                      `yaml:"lineDirectives,omitempty"` // C source name for #line, empty disables
		NestingLimit     int                         `yaml:"nestingLimit,omitempty"`
		CacheSize        int                         `yaml:"cacheSize,omitempty"`
		CallGraph        bool                        `yaml:"callGraph,omitempty"` // write callgraph.dot and callgraph.html
		Log              logger.Config               `yaml:"log"`
	}

	// Matrix lists, per discipline, the callee tiers each caller tier may reach.
	Matrix struct {
		Sync          map[string][]string `yaml:"sync,omitempty"`
		Async         map[string][]string `yaml:"async,omitempty"`
		NonDeferrable []string            `yaml:"nonDeferrable,omitempty"`
	}

	// Externals extends the built-in library classification of one language.
	Externals struct {
		Pure   []string `yaml:"pure,omitempty"`
		Opaque []string `yaml:"opaque,omitempty"`
	}
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RuntimeVersion:   MinRuntimeVersion,
		DefaultTiers:     map[jam.Language]string{jam.C: jam.Device.String()},
		CheckSideEffects: true,
		HeaderExternals:  true,
		NestingLimit:     32,
		CacheSize:        64,
		Log:              logger.DefaultConfig(),
	}
}

// Load reads a YAML configuration over the defaults.
func Load(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return ret, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	ret := Default()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Runtime returns the canonical runtime version, e.g. "v2.1.0".
func (c *Config) Runtime() string {
	version := c.RuntimeVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.Canonical(version)
}

// Validate checks versions, tier names and limits.
func (c *Config) Validate() error {
	version := c.RuntimeVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return fmt.Errorf("%w: runtime version %q is not a semantic version", ErrInvalidConfig, c.RuntimeVersion)
	}
	if semver.Compare(version, MinRuntimeVersion) < 0 {
		return fmt.Errorf("%w: runtime version %v is older than %v", ErrInvalidConfig, c.RuntimeVersion, MinRuntimeVersion)
	}
	if c.NestingLimit < 0 || c.CacheSize < 0 {
		return fmt.Errorf("%w: nestingLimit and cacheSize must not be negative", ErrInvalidConfig)
	}
	for lang, name := range c.DefaultTiers {
		if lang != jam.C && lang != jam.JS {
			return fmt.Errorf("%w: unknown language %q", ErrInvalidConfig, lang)
		}
		if _, err := jam.ParseTier(name); err != nil {
			return fmt.Errorf("%w: default tier of %v: %v", ErrInvalidConfig, lang, err)
		}
	}
	for _, name := range c.EntryPoints {
		if _, _, ok := jam.SplitQualified(name); !ok {
			return fmt.Errorf("%w: entry point %q is not qualified with c: or js:", ErrInvalidConfig, name)
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Policy builds the discipline policy: the configured or default matrix and
// the per-language default tiers.
func (c *Config) Policy() (*callgraph.Policy, error) {
	defaults := map[jam.Language]jam.Tier{}
	for lang, name := range c.DefaultTiers {
		tier, err := jam.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		defaults[lang] = tier
	}
	if c.Matrix == nil {
		return callgraph.NewPolicy(jam.DefaultMatrix(), defaults), nil
	}
	matrix := jam.NewMatrix()
	allow := func(discipline jam.Discipline, pairs map[string][]string) error {
		for fromName, toNames := range pairs {
			from, err := concreteTier(fromName)
			if err != nil {
				return err
			}
			for _, toName := range toNames {
				to, err := concreteTier(toName)
				if err != nil {
					return err
				}
				matrix.Allow(discipline, from, to)
			}
		}
		return nil
	}
	if err := allow(jam.SyncRemote, c.Matrix.Sync); err != nil {
		return nil, err
	}
	if err := allow(jam.AsyncRemote, c.Matrix.Async); err != nil {
		return nil, err
	}
	for _, name := range c.Matrix.NonDeferrable {
		tier, err := concreteTier(name)
		if err != nil {
			return nil, err
		}
		matrix.SetDeferrable(tier, false)
	}
	return callgraph.NewPolicy(matrix, defaults), nil
}

func concreteTier(name string) (jam.Tier, error) {
	tier, err := jam.ParseTier(name)
	if err != nil || !tier.Specified() {
		return jam.Invalid, fmt.Errorf("%w: matrix tier %q must be device, fog or cloud", ErrInvalidConfig, name)
	}
	return tier, nil
}

// ExternalsOf returns the built-in library classification of lang extended
// with the configured names.
func (c *Config) ExternalsOf(lang jam.Language) *translator.Externals {
	pure := append([]string(nil), translator.DefaultPure(lang)...)
	opaque := append([]string(nil), translator.DefaultOpaque(lang)...)
	if extra, ok := c.Externals[lang]; ok && extra != nil {
		pure = append(pure, extra.Pure...)
		opaque = append(opaque, extra.Opaque...)
	}
	return translator.NewExternals(pure, opaque)
}
