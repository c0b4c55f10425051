package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
packageManager: pnpm@9.1.0
catalogs:
  - packs/team.yaml
  - /abs/pack.tar.gz
primitives:
  url: https://example.com/primitives.json
  ttl: 6h
state: state.json
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	want := Config{
		PackageManager: "pnpm@9.1.0",
		Catalogs:       []string{filepath.Join(dir, "packs", "team.yaml"), "/abs/pack.tar.gz"},
		Primitives: Primitives{
			URL: "https://example.com/primitives.json",
			TTL: Duration(6 * time.Hour),
		},
		State: filepath.Join(dir, "state.json"),
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingDefaultYieldsZeroValue(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	tests := map[string]string{
		"malformed":       "packageManager: [",
		"bad ttl":         "primitives:\n  ttl: soon\n",
		"negative ttl":    "primitives:\n  ttl: -1h\n",
		"unknown manager": "packageManager: deno\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
