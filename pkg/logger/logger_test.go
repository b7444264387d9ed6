package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildJSONCarriesServiceName(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "warn", "")

	log.Info("dropped")
	log.Warn("kept", "component", "monitor")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "kept", record["msg"])
	require.Equal(t, "suncare", record["service"])
	require.Equal(t, "monitor", record["component"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelError, parseLevel(" error "))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
