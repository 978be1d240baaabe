package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Valid(t *testing.T) {
	yaml := `
memory_budget: 1MiB
trace: true
debug_values: true
log_level: debug
color: never
`
	cfg, err := ParseConfig([]byte(yaml), "test.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.Trace)
	assert.True(t, cfg.DebugValues)
	assert.Equal(t, ColorNever, cfg.Color)

	budget, err := cfg.Budget()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<20), budget)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("trace: false\n"), "test.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, ColorAuto, cfg.Color)

	budget, err := cfg.Budget()
	require.NoError(t, err)
	assert.Zero(t, budget)

	assert.Equal(t, cfg, Default())
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "trace: [", "parsing test.yaml"},
		{"bad budget", "memory_budget: lots", "test.yaml: memory_budget"},
		{"bad level", "log_level: loud", "test.yaml: log_level"},
		{"bad color", "color: sometimes", `color must be one of auto, always, never; got "sometimes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := FindConfig(nested)
	require.NoError(t, err)
	// A config above the temp dir would be found too; only assert on ours.
	assert.NotEqual(t, filepath.Join(root, "xcvm.yml"), path)

	want := filepath.Join(root, "xcvm.yml")
	require.NoError(t, os.WriteFile(want, []byte("trace: true\n"), 0o644))
	path, err = FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Trace)
}
