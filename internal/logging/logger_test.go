package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for input, expected := range cases {
		level, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, level, input)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())
	assert.NoError(t, Config{Level: "debug", Format: "json"}.Validate())
	assert.Error(t, Config{Level: "debug", Format: "xml"}.Validate())
	assert.Error(t, Config{Level: "loud", Format: "json"}.Validate())
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(Config{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("processed", zap.String("path", "part.step"), zap.Int("faces", 6))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "processed", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "part.step", entry["path"])
	assert.Equal(t, float64(6), entry["faces"])
	assert.Contains(t, entry, "ts")
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(Config{Level: "warn", Format: "console"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("face skipped", zap.Int("face", 12))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "face skipped")
	assert.Contains(t, out, `"face": 12`)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "trace", Format: "console"})
	assert.Error(t, err)
}
