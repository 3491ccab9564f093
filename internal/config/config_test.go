package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantmind-br/tytm/internal/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if cfg.Logging.Level == "" {
		t.Error("expected default log level, got empty")
	}

	if cfg.Paths.ThemeDir == "" {
		t.Error("expected default theme_dir, got empty")
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Chdir(home)

	cfg, err := load(paths.NewResolverWithHome(home, "linux"))
	require.NoError(t, err)

	themeDir := filepath.Join(home, ".config", "Typora", "themes")
	dataDir := filepath.Join(home, ".local", "share", "tytm")

	assert.Equal(t, themeDir, cfg.Paths.ThemeDir)
	assert.Equal(t, filepath.Join(themeDir, "tytm-pkgs"), cfg.Paths.InstalledDir)
	assert.Equal(t, dataDir, cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "manifest"), cfg.Paths.ManifestDir)
	assert.Equal(t, filepath.Join(dataDir, "history.db"), cfg.Paths.DBFile)
	assert.Equal(t, filepath.Join(dataDir, "tytm.log"), cfg.Paths.LogFile)
	assert.Equal(t, "https://github.com/Chen1Plus/tytm", cfg.Registry.URL)
	assert.Equal(t, "manifest", cfg.Registry.Subdir)
	assert.Equal(t, 600, cfg.Network.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Color)
}

func TestLoad_ConfigFileMovesDerivedPaths(t *testing.T) {
	home := t.TempDir()
	t.Chdir(home)

	custom := filepath.Join(home, "typora-themes")
	configDir := filepath.Join(home, ".config", "tytm")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := "[paths]\ntheme_dir = \"" + filepath.ToSlash(custom) + "\"\n\n[network]\ntimeout = 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0644))

	cfg, err := load(paths.NewResolverWithHome(home, "linux"))
	require.NoError(t, err)

	assert.Equal(t, custom, cfg.Paths.ThemeDir)
	assert.Equal(t, filepath.Join(custom, "tytm-pkgs"), cfg.Paths.InstalledDir)
	assert.Equal(t, 30*time.Second, cfg.Network.TimeoutDuration())
}

func TestLoad_EnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Chdir(home)

	override := filepath.Join(home, "env-themes")
	t.Setenv("TYTM_PATHS_THEME_DIR", override)

	cfg, err := load(paths.NewResolverWithHome(home, "linux"))
	require.NoError(t, err)
	assert.Equal(t, override, cfg.Paths.ThemeDir)
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Paths: PathsConfig{ThemeDir: root, DataDir: filepath.Join(root, "data")}}

	require.NoError(t, cfg.Resolve(paths.NewResolverWithHome(root, "linux")))

	assert.Equal(t, filepath.Join(root, "tytm-pkgs"), cfg.Paths.InstalledDir)
	assert.Equal(t, filepath.Join(root, "data", "manifest"), cfg.Paths.ManifestDir)
	assert.Equal(t, defaultRegistryURL, cfg.Registry.URL)
	assert.Equal(t, defaultTimeoutSeconds, cfg.Network.Timeout)
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 600*time.Second, NetworkConfig{}.TimeoutDuration())
	assert.Equal(t, 5*time.Second, NetworkConfig{Timeout: 5}.TimeoutDuration())
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty path",
			input: "",
			want:  "",
		},
		{
			name:  "absolute path",
			input: "/usr/local/bin",
			want:  "/usr/local/bin",
		},
		{
			name:  "home expansion",
			input: "~/test",
			want:  filepath.Join(homeDir, "test"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
