package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const solarizedManifest = `{
  "id": "solarized",
  "name": "Solarized",
  "version": "1.0",
  "source": {"type": "git", "value": {"url": "https://github.com/example/solarized"}},
  "assets": [],
  "pkgs": [{"id": "solarized", "file": "solarized.css"}],
  "default": ["solarized"]
}`

func TestUpdateCmd(t *testing.T) {
	env := newTestEnv(t)

	var cloned []string
	env.runner.RunCommandFunc = func(_ context.Context, name string, args ...string) (string, error) {
		cloned = append([]string{name}, args...)
		writeFile(t, filepath.Join(args[len(args)-1], "manifest", "solarized.json"), solarizedManifest)
		return "", nil
	}

	out, err := env.run("update")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 manifest files")
	require.NotEmpty(t, cloned)
	assert.Equal(t, "git", cloned[0])
	assert.Contains(t, cloned, "https://github.com/example/registry")

	out, err = env.run("list", "--available")
	require.NoError(t, err)
	assert.Contains(t, out, "solarized")
	assert.Contains(t, out, "night", "existing manifests are kept")

	events := env.events(t, "")
	require.Len(t, events, 1)
	assert.Equal(t, core.ActionUpdate, events[0].Action)
}

func TestUpdateCmd_Errors(t *testing.T) {
	t.Run("git missing", func(t *testing.T) {
		env := newTestEnv(t)
		env.runner.RequireCommandFunc = func(name string) error {
			return fmt.Errorf("%s: %w", name, core.ErrCommandNotFound)
		}

		out, err := env.run("update")
		require.Error(t, err)
		assert.Contains(t, out, "git is required")
		assert.Equal(t, core.ExitCommandNotFound, core.ExitCodeFor(err))
	})

	t.Run("clone fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.runner.RunCommandFunc = func(context.Context, string, ...string) (string, error) {
			return "", errors.New("fatal: repository not found")
		}

		_, err := env.run("update")
		assert.ErrorIs(t, err, core.ErrClone)
		assert.Equal(t, core.ExitNetwork, core.ExitCodeFor(err))
		assert.Empty(t, env.events(t, ""))
	})

	t.Run("registry without manifest dir", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.run("update")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.run("update", "night")
		assert.Error(t, err)
	})
}
