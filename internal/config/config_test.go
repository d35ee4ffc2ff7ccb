package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/stepcolor/pkg/orient"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepcolor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "largest_face_down", cfg.Orientation)
	assert.Equal(t, 15.0, cfg.Tolerance)
	assert.Equal(t, "_colored", cfg.Suffix)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	c, err := cfg.Criterion()
	require.NoError(t, err)
	assert.Equal(t, orient.LargestFaceDown, c)

	assert.Equal(t, cfg, Default())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
orientation: z_axis_up
tolerance: 30
suffix: _painted
workers: 4
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Orientation: "z_axis_up",
		Tolerance:   30,
		Suffix:      "_painted",
		Workers:     4,
		Log:         cfg.Log,
	}, cfg)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadPartialFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "tolerance: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Tolerance)
	assert.Equal(t, "_colored", cfg.Suffix)
	assert.Equal(t, "largest_face_down", cfg.Orientation)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"tolerance too small": "tolerance: 0.5\n",
		"tolerance too large": "tolerance: 60\n",
		"negative workers":    "workers: -2\n",
		"unknown orientation": "orientation: sideways\n",
		"suffix with slash":   "suffix: out/x\n",
		"bad log level":       "log:\n  level: loud\n",
		"bad log format":      "log:\n  format: xml\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "tolerance: [1, 2\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
