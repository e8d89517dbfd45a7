package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", FormatJSON, &buf)
	defer Setup("info", FormatConsole, nil)

	Debug("hidden")
	Infof("loaded %d artifacts", 5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "loaded 5 artifacts", entry["message"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupConsole(t *testing.T) {
	var buf bytes.Buffer
	Setup("debug", FormatConsole, &buf)
	defer Setup("info", FormatConsole, nil)

	Get().Warn().Str("field", "food").Msg("unrecognized value")

	out := buf.String()
	assert.Contains(t, out, "unrecognized value")
	assert.Contains(t, out, "field=food")
}

func TestSpecificLevelWriter(t *testing.T) {
	var buf bytes.Buffer
	w := SpecificLevelWriter{Writer: &buf, Levels: []zerolog.Level{zerolog.ErrorLevel}}

	n, err := w.WriteLevel(zerolog.InfoLevel, []byte("skip"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Empty(t, buf.String())

	_, err = w.WriteLevel(zerolog.ErrorLevel, []byte("keep"))
	require.NoError(t, err)
	assert.Equal(t, "keep", buf.String())
}
