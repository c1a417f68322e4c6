package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("Should accept known levels in any case", func(t *testing.T) {
		for in, want := range map[string]LogLevel{
			"debug": DebugLevel,
			"INFO":  InfoLevel,
			"Warn":  WarnLevel,
			"error": ErrorLevel,
		} {
			got, ok := ParseLevel(in)
			assert.True(t, ok, in)
			assert.Equal(t, want, got)
		}
	})

	t.Run("Should fall back to info for unknown levels", func(t *testing.T) {
		got, ok := ParseLevel("verbose")
		assert.False(t, ok)
		assert.Equal(t, InfoLevel, got)
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	assert.Equal(t, charmlog.DebugLevel, DebugLevel.ToCharmlogLevel())
	assert.Equal(t, charmlog.WarnLevel, WarnLevel.ToCharmlogLevel())
	assert.Equal(t, charmlog.InfoLevel, LogLevel("bogus").ToCharmlogLevel())
}

func TestNewLogger(t *testing.T) {
	t.Run("Should drop messages below the level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf})
		l.Info("hidden")
		l.Warn("shown", "passes", 3)
		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
		assert.Contains(t, out, "passes=3")
	})

	t.Run("Should write JSON when configured", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})
		l.With("expr", 2).Debug("reduced", "status", "normal")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "reduced", entry["msg"])
		assert.Equal(t, "normal", entry["status"])
		assert.EqualValues(t, 2, entry["expr"])
	})

	t.Run("Should default a nil config", func(t *testing.T) {
		assert.NotNil(t, NewLogger(nil))
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return the logger carried by the context", func(t *testing.T) {
		l := NewNop()
		ctx := ContextWithLogger(context.Background(), l)
		assert.Same(t, l, FromContext(ctx))
	})

	t.Run("Should fall back to the default logger", func(t *testing.T) {
		assert.Equal(t, GetDefault(), FromContext(context.Background()))
	})
}

func TestInit(t *testing.T) {
	prev := GetDefault()
	t.Cleanup(func() { defaultLogger = prev })

	var buf bytes.Buffer
	Init(&Config{Level: ErrorLevel, Output: &buf})
	Warn("quiet")
	Error("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
