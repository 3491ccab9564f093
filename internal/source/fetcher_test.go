package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serveBytes(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/theme.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(runner helpers.CommandRunner) *Fetcher {
	return NewFetcherWithDeps(afero.NewOsFs(), runner, nil, nil)
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func TestFetch_Zip(t *testing.T) {
	t.Parallel()

	srv := serveBytes(t, zipArchive(t, map[string]string{
		"dracula-main/theme/dracula.css":         "body{}",
		"dracula-main/theme/dracula/fonts/a.ttf": "font",
		"dracula-main/theme/screenshot.png":      "png",
		"dracula-main/README.md":                 "# readme",
	}))

	f := newTestFetcher(&helpers.MockCommandRunner{})
	content, err := f.Fetch(context.Background(), Source{
		Kind: core.SourceZip,
		Spec: Spec{
			URL:      srv.URL + "/theme.zip",
			Content:  "dracula-main/theme",
			Excludes: []string{"screenshot.png"},
		},
	})
	require.NoError(t, err)
	defer content.Close()

	assert.Equal(t, []string{"dracula.css", "dracula/fonts/a.ttf"}, listFiles(t, content.Dir))
}

func TestFetch_CloseRemovesTempDir(t *testing.T) {
	t.Parallel()

	srv := serveBytes(t, zipArchive(t, map[string]string{"a.css": "x"}))

	f := newTestFetcher(&helpers.MockCommandRunner{})
	content, err := f.Fetch(context.Background(), Source{
		Kind: core.SourceZip,
		Spec: Spec{URL: srv.URL + "/theme.zip"},
	})
	require.NoError(t, err)

	root := filepath.Dir(content.Dir)
	assert.DirExists(t, root)
	require.NoError(t, content.Close())
	assert.NoDirExists(t, root)
	assert.NoError(t, content.Close(), "second close is a no-op")
}

func TestFetch_ZipErrors(t *testing.T) {
	t.Parallel()

	srv := serveBytes(t, []byte("this is not an archive"))
	f := newTestFetcher(&helpers.MockCommandRunner{})

	_, err := f.Fetch(context.Background(), Source{Kind: core.SourceZip, Spec: Spec{URL: srv.URL + "/missing.zip"}})
	assert.ErrorIs(t, err, core.ErrNetwork)

	_, err = f.Fetch(context.Background(), Source{Kind: core.SourceZip, Spec: Spec{URL: srv.URL + "/theme.zip"}})
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestFetch_MissingContentDir(t *testing.T) {
	t.Parallel()

	srv := serveBytes(t, zipArchive(t, map[string]string{"other/a.css": "x"}))
	f := newTestFetcher(&helpers.MockCommandRunner{})

	_, err := f.Fetch(context.Background(), Source{
		Kind: core.SourceZip,
		Spec: Spec{URL: srv.URL + "/theme.zip", Content: "theme"},
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFetch_Git(t *testing.T) {
	t.Parallel()

	var gotArgs []string
	runner := &helpers.MockCommandRunner{
		RunCommandFunc: func(_ context.Context, name string, args ...string) (string, error) {
			gotArgs = append([]string{name}, args...)
			dst := args[len(args)-1]
			for name, content := range map[string]string{
				".git/HEAD":           "ref: refs/heads/main",
				"themes/nord.css":     "body{}",
				"themes/nord/bg.png":  "png",
				"themes/drafts/x.css": "draft",
			} {
				path := filepath.Join(dst, filepath.FromSlash(name))
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					return "", err
				}
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					return "", err
				}
			}
			return "", nil
		},
	}

	f := newTestFetcher(runner)
	content, err := f.Fetch(context.Background(), Source{
		Kind: core.SourceGit,
		Spec: Spec{
			URL:      "https://github.com/example/nord",
			Content:  "themes",
			Excludes: []string{"drafts"},
		},
	})
	require.NoError(t, err)
	defer content.Close()

	assert.Equal(t, []string{"nord.css", "nord/bg.png"}, listFiles(t, content.Dir))
	require.NotEmpty(t, gotArgs)
	assert.Equal(t, []string{"git", "clone", "--depth", "1", "--quiet", "--", "https://github.com/example/nord"}, gotArgs[:len(gotArgs)-1])
}

func TestFetch_GitFailure(t *testing.T) {
	t.Parallel()

	runner := &helpers.MockCommandRunner{
		RunCommandFunc: func(context.Context, string, ...string) (string, error) {
			return "", errors.New("repository not found")
		},
	}
	f := newTestFetcher(runner)

	_, err := f.Fetch(context.Background(), Source{Kind: core.SourceGit, Spec: Spec{URL: "https://github.com/example/none"}})
	assert.ErrorIs(t, err, core.ErrClone)

	missingGit := &helpers.MockCommandRunner{
		RequireCommandFunc: func(name string) error { return fmt.Errorf("%s: %w", name, core.ErrCommandNotFound) },
	}
	_, err = newTestFetcher(missingGit).Fetch(context.Background(), Source{Kind: core.SourceGit, Spec: Spec{URL: "https://github.com/example/none"}})
	assert.ErrorIs(t, err, core.ErrClone)
	assert.ErrorIs(t, err, core.ErrCommandNotFound)
	assert.Equal(t, core.ExitCommandNotFound, core.ExitCodeFor(err))
}

func TestFetch_InvalidSource(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(&helpers.MockCommandRunner{})
	_, err := f.Fetch(context.Background(), Source{Kind: "ftp", Spec: Spec{URL: "ftp://example.com"}})
	assert.ErrorIs(t, err, core.ErrParse)
}
