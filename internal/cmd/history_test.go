package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "No history yet")

	_, err = env.run("add", "night")
	require.NoError(t, err)
	_, err = env.run("remove", "night")
	require.NoError(t, err)

	out, err = env.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "install")
	assert.Contains(t, out, "uninstall")
	assert.Contains(t, out, "2.0.1")

	out, err = env.run("history", "night", "--limit", "1", "--json")
	require.NoError(t, err)
	var events []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "uninstall", events[0]["action"])
	assert.Equal(t, "night", events[0]["theme_id"])

	out, err = env.run("history", "other", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistoryCmd_Clear(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("add", "night")
	require.NoError(t, err)

	out, err := env.run("history", "--clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 history entries")
	assert.Empty(t, env.events(t, ""))
}

func TestHistoryCmd_UnusableJournal(t *testing.T) {
	env := newTestEnv(t)
	blocker := filepath.Join(env.cfg.Paths.DataDir, "blocker")
	writeFile(t, blocker, "not a directory")
	env.cfg.Paths.DBFile = filepath.Join(blocker, "history.db")

	out, err := env.run("history")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDatabase)
	assert.Equal(t, core.ExitDatabase, core.ExitCodeFor(err))
	assert.Contains(t, out, "failed to open history")
}
