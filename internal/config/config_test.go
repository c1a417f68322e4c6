package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/ski/internal/eval"
)

func newTestLoader(env ...string) *Loader {
	l := NewLoader()
	l.environ = func() []string { return env }
	return l
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ski.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return defaults without sources", func(t *testing.T) {
		cfg, err := newTestLoader().Load(ctx, "", nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, eval.DefaultLimits(), cfg.EvalLimits())
	})

	t.Run("Should ignore a missing file", func(t *testing.T) {
		cfg, err := newTestLoader().Load(ctx, filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultDBPath, cfg.Store.Path)
	})

	t.Run("Should read a YAML file", func(t *testing.T) {
		path := writeYAML(t, `
limits:
  max_passes: 500
  timeout: 2s
store:
  path: /tmp/lib.db
  history: false
log:
  level: debug
  json: true
prelude: true
`)
		cfg, err := newTestLoader().Load(ctx, path, nil)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.Limits.MaxPasses)
		assert.Equal(t, eval.DefaultMaxNodes, cfg.Limits.MaxNodes)
		assert.Equal(t, 2*time.Second, cfg.Limits.Timeout)
		assert.Equal(t, "/tmp/lib.db", cfg.Store.Path)
		assert.False(t, cfg.Store.History)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.JSON)
		assert.True(t, cfg.Prelude)
	})

	t.Run("Should let the environment override the file", func(t *testing.T) {
		path := writeYAML(t, "limits:\n  max_passes: 500\n")
		cfg, err := newTestLoader(
			"SKI_LIMITS_MAX_PASSES=42",
			"SKI_LIMITS_TIMEOUT=1m",
			"SKI_STORE_DISABLED=true",
			"SKI_PRELUDE=true",
			"OTHER_VAR=ignored",
		).Load(ctx, path, nil)
		require.NoError(t, err)
		assert.Equal(t, 42, cfg.Limits.MaxPasses)
		assert.Equal(t, time.Minute, cfg.Limits.Timeout)
		assert.True(t, cfg.Store.Disabled)
		assert.True(t, cfg.Prelude)
	})

	t.Run("Should let overrides win over everything", func(t *testing.T) {
		cfg, err := newTestLoader("SKI_LIMITS_MAX_PASSES=42").Load(ctx, "", map[string]any{
			"limits.max_passes": "7",
			"metrics.textfile":  "/tmp/ski.prom",
		})
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Limits.MaxPasses)
		assert.Equal(t, "/tmp/ski.prom", cfg.Metrics.Textfile)
	})

	t.Run("Should reject an unknown log level", func(t *testing.T) {
		_, err := newTestLoader().Load(ctx, "", map[string]any{"log.level": "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Should reject negative limits", func(t *testing.T) {
		_, err := newTestLoader("SKI_LIMITS_MAX_NODES=-1").Load(ctx, "", nil)
		require.Error(t, err)
	})

	t.Run("Should require a store path unless disabled", func(t *testing.T) {
		_, err := newTestLoader().Load(ctx, "", map[string]any{"store.path": ""})
		require.Error(t, err)

		cfg, err := newTestLoader().Load(ctx, "", map[string]any{"store.path": "", "store.disabled": true})
		require.NoError(t, err)
		assert.True(t, cfg.Store.Disabled)
	})

	t.Run("Should fail on invalid YAML", func(t *testing.T) {
		path := writeYAML(t, "limits: [unclosed\n")
		_, err := newTestLoader().Load(ctx, path, nil)
		require.Error(t, err)
	})
}

func TestTransformEnvKey(t *testing.T) {
	cases := map[string]string{
		"SKI_LIMITS_MAX_PASSES": "limits.max_passes",
		"SKI_STORE_PATH":        "store.path",
		"SKI_PRELUDE":           "prelude",
		"SKI_METRICS_TEXTFILE":  "metrics.textfile",
		"SKI_LOG_LEVEL":         "log.level",
	}
	for in, want := range cases {
		key, value := transformEnvKey(in, "v")
		assert.Equal(t, want, key, in)
		assert.Equal(t, "v", value)
	}
}
