package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw965/smartcab/config"
	"github.com/sw965/smartcab/ql"
	"github.com/sw965/smartcab/world"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smartcab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPartialOverride(t *testing.T) {
	path := writeFile(t, `
learning:
  epsilon: 0.1
world:
  dummy_agents: 5
trials: 20
seed: 42
output:
  chart_path: out/chart.html
  log_level: debug
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	want := ql.DefaultConfig()
	want.Epsilon = 0.1
	assert.Equal(t, want, cfg.Learning)

	wantWorld := world.DefaultConfig()
	wantWorld.DummyAgents = 5
	assert.Equal(t, wantWorld, cfg.World)

	assert.Equal(t, 20, cfg.Trials)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "out/chart.html", cfg.Output.ChartPath)

	level, err := cfg.Output.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{name: "異常_YAML不正", body: "learning: [", wantSub: "failed to parse config file"},
		{name: "異常_alpha範囲外", body: "learning:\n  alpha: 3\n", wantSub: "Alpha"},
		{name: "異常_試行0回", body: "trials: 0\n", wantSub: "trials"},
		{name: "異常_ログレベル", body: "output:\n  log_level: loud\n", wantSub: "log_level"},
		{name: "異常_格子", body: "world:\n  width: 1\n", wantSub: "格子"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantSub)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
