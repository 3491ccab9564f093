package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/tytm/internal/cmd"
	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("TYTM_PATHS_THEME_DIR", filepath.Join(root, "themes"))
	return root
}

func TestConfigLoad(t *testing.T) {
	root := isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "themes"), cfg.Paths.ThemeDir)
	assert.Equal(t, filepath.Join(root, "themes", "tytm-pkgs"), cfg.Paths.InstalledDir)
}

func TestLoggerInitialization(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: true,
	})
	assert.NotNil(t, log)
}

func TestCommandExecution(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	var buf bytes.Buffer
	log := logging.NewTestLogger(&buf)

	rootCmd := cmd.NewRootCmd(cfg, log, version)
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "tytm version dev")
}
