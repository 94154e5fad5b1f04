package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Current().Server.Transport)
	require.Equal(t, 8080, cfg.Current().Server.Port)
	require.Equal(t, 1, cfg.Current().Limits.DefaultConcurrency)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "server:\n  port: 9090\nlimits:\n  default_concurrency: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, l.Current().Server.Port)
	require.Equal(t, 4, l.Current().Limits.DefaultConcurrency)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("MCP_SERVER_PORT", "7000")
	l, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7000, l.Current().Server.Port)
}

func TestLoad_InvalidTransportRejected(t *testing.T) {
	t.Setenv("MCP_SERVER_TRANSPORT", "carrier-pigeon")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_ToolIncludeExcludeFromEnv(t *testing.T) {
	t.Setenv("TOOL_EXCLUDE", "sqlmap, hydra")
	l, err := Load("")
	require.NoError(t, err)
	require.Equal(t, []string{"sqlmap", "hydra"}, l.Current().Tools.Exclude)
}
