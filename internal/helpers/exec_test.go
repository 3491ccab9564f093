package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestOSCommandRunner(t *testing.T) {
	runner := NewOSCommandRunner()

	t.Run("CommandExists", func(t *testing.T) {
		assert.True(t, runner.CommandExists("echo"))
		assert.False(t, runner.CommandExists("nonexistentcommand123"))
		// second lookup is served from the cache
		assert.False(t, runner.CommandExists("nonexistentcommand123"))
	})

	t.Run("RequireCommand", func(t *testing.T) {
		assert.NoError(t, runner.RequireCommand("echo"))
		err := runner.RequireCommand("nonexistentcommand123")
		assert.ErrorIs(t, err, core.ErrCommandNotFound)
		assert.Contains(t, err.Error(), "nonexistentcommand123")
	})

	t.Run("RunCommand", func(t *testing.T) {
		output, err := runner.RunCommand(context.Background(), "echo", "test")
		assert.NoError(t, err)
		assert.Contains(t, output, "test")
	})

	t.Run("RunCommandInDir", func(t *testing.T) {
		tmpDir := t.TempDir()
		output, err := runner.RunCommandInDir(context.Background(), tmpDir, "pwd")
		assert.NoError(t, err)
		assert.Contains(t, output, tmpDir)
	})

	t.Run("RunCommand timeout exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := runner.RunCommand(ctx, "sleep", "5")
		assert.Error(t, err)
	})

	t.Run("RunCommand failure includes stderr", func(t *testing.T) {
		_, err := runner.RunCommand(context.Background(), "ls", "/nonexistent-tytm-dir")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nonexistent-tytm-dir")
	})
}

func TestCommandRunnerInterface(_ *testing.T) {
	var _ CommandRunner = &OSCommandRunner{}
	var _ CommandRunner = &MockCommandRunner{}
}
