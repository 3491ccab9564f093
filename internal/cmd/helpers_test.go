package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/db"
	"github.com/quantmind-br/tytm/internal/helpers"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var nightFiles = map[string]string{
	"README.md":             "# night",
	"theme/night.css":       "body { color: #eee; }",
	"theme/night-blue.css":  "body { color: #99f; }",
	"theme/night/bg.png":    "png",
	"theme/night/font.woff": "woff",
}

const nightManifest = `{
  "id": "night",
  "name": "Night",
  "version": "2.0.1",
  "source": {"type": "zip", "value": {"url": %q, "content": "theme"}},
  "assets": ["night"],
  "pkgs": [
    {"id": "night", "file": "night.css"},
    {"id": "night-blue", "file": "night-blue.css"}
  ],
  "default": ["night"]
}`

type testEnv struct {
	cfg    *config.Config
	log    *zerolog.Logger
	runner *helpers.MockCommandRunner
	out    *bytes.Buffer
}

// newTestEnv builds a config over a temp root, serves the night theme and
// registers its manifest. Command output and ui messages share one buffer.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	themeDir := filepath.Join(root, "themes")
	dataDir := filepath.Join(root, "data")

	cfg := &config.Config{
		Paths: config.PathsConfig{
			ThemeDir:     themeDir,
			InstalledDir: filepath.Join(themeDir, "tytm-pkgs"),
			DataDir:      dataDir,
			ManifestDir:  filepath.Join(dataDir, "manifest"),
			DBFile:       filepath.Join(dataDir, "history.db"),
			LogFile:      filepath.Join(dataDir, "tytm.log"),
		},
		Registry: config.RegistryConfig{URL: "https://github.com/example/registry", Subdir: "manifest"},
		Network:  config.NetworkConfig{Timeout: 30},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/night.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(zipBytes(t, nightFiles))
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, os.MkdirAll(cfg.Paths.ManifestDir, 0755))
	writeFile(t, filepath.Join(cfg.Paths.ManifestDir, "night.json"), fmt.Sprintf(nightManifest, srv.URL+"/night.zip"))

	runner := &helpers.MockCommandRunner{
		CommandExistsFunc: func(string) bool { return true },
	}
	oldRunner := newRunner
	newRunner = func() helpers.CommandRunner { return runner }
	t.Cleanup(func() { newRunner = oldRunner })

	var out bytes.Buffer
	ui.SetOutput(&out, &out)
	ui.DisableColors()
	t.Cleanup(func() {
		ui.SetOutput(nil, nil)
		ui.EnableColors()
	})

	log := zerolog.Nop()
	return &testEnv{cfg: cfg, log: &log, runner: runner, out: &out}
}

// run executes a fresh root command with args and returns everything printed
func (e *testEnv) run(args ...string) (string, error) {
	e.out.Reset()
	root := NewRootCmd(e.cfg, e.log, "1.0.0-test")
	root.SetOut(e.out)
	root.SetErr(e.out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return e.out.String(), err
}

func (e *testEnv) themePath(parts ...string) string {
	return filepath.Join(append([]string{e.cfg.Paths.ThemeDir}, parts...)...)
}

func (e *testEnv) events(t *testing.T, themeID string) []db.Event {
	t.Helper()
	journal, err := db.New(context.Background(), e.cfg.Paths.DBFile)
	require.NoError(t, err)
	defer journal.Close()

	events, err := journal.List(context.Background(), themeID, 0)
	require.NoError(t, err)
	return events
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
