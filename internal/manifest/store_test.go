package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draculaJSON = `{
  "id": "dracula",
  "name": "Dracula",
  "version": "1.2.0",
  "source": {
    "type": "zip",
    "value": {
      "url": "https://github.com/example/dracula/archive/main.zip",
      "content": "dracula-main/theme",
      "excludes": []
    }
  },
  "assets": ["dracula"],
  "pkgs": [
    {"id": "dracula", "file": "dracula.css"},
    {"id": "dracula-dark", "file": "dracula-dark.css"}
  ],
  "default": ["dracula"]
}`

const nordYAML = `id: nord
name: Nord
version: "0.4"
source:
  type: git
  value:
    url: https://github.com/example/nord
    content: themes
    excludes: [drafts]
assets: [nord]
pkgs:
  - id: nord
    file: nord.css
default: [nord]
`

func newMemStore(t *testing.T, files map[string]string) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/manifests", name), []byte(content), 0644))
	}
	return NewStoreWithDeps(fs, &helpers.MockCommandRunner{}, "/manifests", nil)
}

func TestStore_GetJSON(t *testing.T) {
	t.Parallel()

	store := newMemStore(t, map[string]string{"dracula.json": draculaJSON})

	m, err := store.Get("dracula")
	require.NoError(t, err)
	assert.Equal(t, "Dracula", m.Name)
	assert.Equal(t, core.SourceZip, m.Source.Kind)
	assert.Equal(t, []fsops.ObjectName{"dracula"}, m.Assets)
	assert.Len(t, m.Pkgs, 2)
	assert.Equal(t, []string{"dracula"}, m.Default)
}

func TestStore_GetYAML(t *testing.T) {
	t.Parallel()

	store := newMemStore(t, map[string]string{"nord.yaml": nordYAML})

	m, err := store.Get("nord")
	require.NoError(t, err)
	assert.Equal(t, core.SourceGit, m.Source.Kind)
	assert.Equal(t, []string{"drafts"}, m.Source.Spec.Excludes)
	assert.Equal(t, fsops.ObjectName("nord.css"), m.Pkgs[0].File)
}

func TestStore_GetErrors(t *testing.T) {
	t.Parallel()

	store := newMemStore(t, map[string]string{
		"broken.json":     `{"id": "broken",`,
		"unknown.json":    `{"id": "unknown", "colour": "red"}`,
		"renamed.json":    `{"id": "other", "version": "1", "source": {"type": "git", "value": {"url": "https://example.com/r"}}}`,
		"baddefault.json": `{"id": "baddefault", "version": "1", "source": {"type": "git", "value": {"url": "https://example.com/r"}}, "default": ["x"]}`,
	})

	tests := []struct {
		id   string
		want error
	}{
		{"missing", core.ErrNotFound},
		{"broken", core.ErrParse},
		{"unknown", core.ErrParse},
		{"renamed", core.ErrParse},
		{"baddefault", core.ErrParse},
		{"../escape", core.ErrInvalidName},
	}

	for _, tt := range tests {
		_, err := store.Get(tt.id)
		assert.ErrorIs(t, err, tt.want, tt.id)
	}
}

func TestStore_IDsAndList(t *testing.T) {
	t.Parallel()

	store := newMemStore(t, map[string]string{
		"dracula.json": draculaJSON,
		"nord.yaml":    nordYAML,
		"broken.json":  `nope`,
		"README.md":    "# manifests",
	})

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "dracula", "nord"}, ids)

	manifests, err := store.List()
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, "dracula", manifests[0].ID)
	assert.Equal(t, "nord", manifests[1].ID)
}

func TestStore_IDsMissingDir(t *testing.T) {
	t.Parallel()

	store := NewStoreWithDeps(afero.NewMemMapFs(), &helpers.MockCommandRunner{}, "/nowhere", nil)
	ids, err := store.IDs()
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_Suggest(t *testing.T) {
	t.Parallel()

	store := newMemStore(t, map[string]string{
		"dracula.json":     draculaJSON,
		"nord.yaml":        nordYAML,
		"github.json":      "{}",
		"github-dark.json": "{}",
	})

	assert.Equal(t, []string{"dracula"}, store.Suggest("drakula"))
	assert.Equal(t, []string{"github", "github-dark"}, store.Suggest("gthub"))
	assert.Empty(t, store.Suggest("solarized"))
}

func TestStore_Update(t *testing.T) {
	t.Parallel()

	storeDir := filepath.Join(t.TempDir(), "manifest")
	require.NoError(t, os.MkdirAll(storeDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "dracula.json"), []byte("stale"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "local.json"), []byte("{}"), 0644))

	var cloned string
	runner := &helpers.MockCommandRunner{
		RunCommandFunc: func(_ context.Context, name string, args ...string) (string, error) {
			cloned = args[len(args)-2]
			repo := args[len(args)-1]
			dir := filepath.Join(repo, "manifest")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", err
			}
			if err := os.WriteFile(filepath.Join(dir, "dracula.json"), []byte(draculaJSON), 0644); err != nil {
				return "", err
			}
			return "", os.WriteFile(filepath.Join(dir, "nord.yaml"), []byte(nordYAML), 0644)
		},
	}

	store := NewStoreWithDeps(afero.NewOsFs(), runner, storeDir, nil)
	count, err := store.Update(context.Background(), "https://github.com/Chen1Plus/tytm", "manifest")
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, "https://github.com/Chen1Plus/tytm", cloned)

	m, err := store.Get("dracula")
	require.NoError(t, err, "stale manifest must be replaced")
	assert.Equal(t, "1.2.0", m.Version)

	_, err = store.Get("nord")
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(storeDir, "local.json"), "local manifests survive a refresh")
}

func TestStore_UpdateErrors(t *testing.T) {
	t.Parallel()

	failing := &helpers.MockCommandRunner{
		RunCommandFunc: func(context.Context, string, ...string) (string, error) {
			return "", errors.New("could not resolve host")
		},
	}
	store := NewStoreWithDeps(afero.NewOsFs(), failing, t.TempDir(), nil)
	_, err := store.Update(context.Background(), "https://github.com/Chen1Plus/tytm", "manifest")
	assert.ErrorIs(t, err, core.ErrClone)

	empty := NewStoreWithDeps(afero.NewOsFs(), &helpers.MockCommandRunner{}, t.TempDir(), nil)
	_, err = empty.Update(context.Background(), "https://github.com/Chen1Plus/tytm", "manifest")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = empty.Update(context.Background(), "not a url", "manifest")
	assert.ErrorIs(t, err, core.ErrParse)
}
