package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/viant/jamc/jam"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JAMC_"

// LoadEnv applies JAMC_* overrides read from the given .env files and the
// process environment; the process environment wins. Missing files are skipped.
func (c *Config) LoadEnv(files ...string) error {
	values := map[string]string{}
	for _, file := range files {
		read, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read %v: %w", file, err)
		}
		for k, v := range read {
			values[k] = v
		}
	}
	return c.ApplyEnv(func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := values[key]
		return value, ok
	})
}

// ApplyEnv applies overrides found by lookup and validates the result.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	str := func(name string, target *string) {
		if value, ok := lookup(EnvPrefix + name); ok {
			*target = value
		}
	}
	flag := func(name string, target *bool) error {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %v%v: %v", ErrInvalidConfig, EnvPrefix, name, err)
		}
		*target = parsed
		return nil
	}
	str("RUNTIME_VERSION", &c.RuntimeVersion)
	str("LINE_DIRECTIVES", &c.LineDirectives)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if err := flag("YIELDS", &c.Yields); err != nil {
		return err
	}
	if err := flag("CHECK_SIDE_EFFECTS", &c.CheckSideEffects); err != nil {
		return err
	}
	if err := flag("HEADER_EXTERNALS", &c.HeaderExternals); err != nil {
		return err
	}
	if err := flag("CALL_GRAPH", &c.CallGraph); err != nil {
		return err
	}
	if value, ok := lookup(EnvPrefix + "NESTING_LIMIT"); ok {
		limit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %vNESTING_LIMIT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.NestingLimit = limit
	}
	for _, lang := range jam.Languages {
		if value, ok := lookup(EnvPrefix + "DEFAULT_TIER_" + strings.ToUpper(string(lang))); ok {
			if c.DefaultTiers == nil {
				c.DefaultTiers = map[jam.Language]string{}
			}
			c.DefaultTiers[lang] = value
		}
	}
	return c.Validate()
}
