package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/jamc/jam"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "v2.0.0", cfg.Runtime())
	assert.True(t, cfg.HeaderExternals)
	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, jam.Device, policy.DefaultTiers[jam.C])
	assert.True(t, policy.Matrix.Permits(jam.SyncRemote, jam.Device, jam.Cloud))
	assert.False(t, policy.Matrix.Permits(jam.SyncRemote, jam.Cloud, jam.Device))
}

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		yaml        string
		hasError    bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			description: "matrix",
			yaml: `runtimeVersion: 2.3.1
defaultTiers:
  js: fog
matrix:
  sync:
    cloud: [device]
  async:
    device: [fog]
  nonDeferrable: [fog]
externals:
  c:
    pure: [my_hash]
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "v2.3.1", cfg.Runtime())
				policy, err := cfg.Policy()
				require.NoError(t, err)
				assert.Equal(t, jam.Fog, policy.DefaultTiers[jam.JS])
				assert.True(t, policy.Matrix.Permits(jam.SyncRemote, jam.Cloud, jam.Device))
				assert.False(t, policy.Matrix.Permits(jam.SyncRemote, jam.Device, jam.Cloud))
				assert.False(t, policy.Matrix.Deferrable(jam.Fog))
				known, opaque := cfg.ExternalsOf(jam.C).Classify("my_hash")
				assert.True(t, known)
				assert.False(t, opaque)
				known, _ = cfg.ExternalsOf(jam.C).Classify("printf")
				assert.True(t, known)
			},
		},
		{description: "old runtime", yaml: "runtimeVersion: 1.9.0\n", hasError: true},
		{description: "bad runtime", yaml: "runtimeVersion: latest\n", hasError: true},
		{description: "bad tier", yaml: "defaultTiers:\n  c: edge\n", hasError: true},
		{description: "bad matrix tier", yaml: "matrix:\n  sync:\n    device: [moon]\n", hasError: true},
		{description: "unqualified entry", yaml: "entryPoints: [loop]\n", hasError: true},
		{description: "bad log level", yaml: "log:\n  level: loud\n", hasError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			cfg, err := Parse([]byte(testCase.yaml))
			if testCase.hasError {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			testCase.check(t, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	location := filepath.Join(t.TempDir(), "jamc.yaml")
	require.NoError(t, os.WriteFile(location, []byte("yields: true\nlineDirectives: app.c\n"), 0o644))
	cfg, err := Load(context.Background(), afs.New(), location)
	require.NoError(t, err)
	assert.True(t, cfg.Yields)
	assert.False(t, cfg.HeaderExternals)
	assert.Equal(t, "app.c", cfg.LineDirectives)
	assert.True(t, cfg.CheckSideEffects)

	_, err = Load(context.Background(), afs.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_LoadEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("JAMC_NESTING_LIMIT=4\nJAMC_YIELDS=true\nJAMC_HEADER_EXTERNALS=false\nJAMC_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv("JAMC_LOG_LEVEL", "debug")
	t.Setenv("JAMC_DEFAULT_TIER_JS", "cloud")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(envFile, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, 4, cfg.NestingLimit)
	assert.True(t, cfg.Yields)
	assert.False(t, cfg.HeaderExternals)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "cloud", cfg.DefaultTiers[jam.JS])

	t.Setenv("JAMC_CHECK_SIDE_EFFECTS", "maybe")
	assert.ErrorIs(t, Default().LoadEnv(), ErrInvalidConfig)
}
