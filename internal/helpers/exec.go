package helpers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/quantmind-br/tytm/internal/core"
)

// CommandRunner defines an interface for executing system commands.
// Sources and the manifest store shell out to git through it, so tests can
// replace the binary with a MockCommandRunner.
type CommandRunner interface {
	// CommandExists checks if a command is available in PATH
	CommandExists(name string) bool

	// RequireCommand ensures a command exists or returns error
	RequireCommand(name string) error

	// RunCommand executes a command and returns stdout
	RunCommand(ctx context.Context, name string, args ...string) (string, error)

	// RunCommandInDir executes a command in a specific working directory
	RunCommandInDir(ctx context.Context, dir, name string, args ...string) (string, error)
}

// OSCommandRunner is the default implementation using os/exec
type OSCommandRunner struct {
	lookups sync.Map // map[string]bool
}

// NewOSCommandRunner creates a new OSCommandRunner instance
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// CommandExists checks if a command is available in PATH
func (r *OSCommandRunner) CommandExists(name string) bool {
	if cached, ok := r.lookups.Load(name); ok {
		if exists, ok := cached.(bool); ok {
			return exists
		}
		r.lookups.Delete(name)
	}

	_, err := exec.LookPath(name)
	exists := err == nil
	r.lookups.Store(name, exists)
	return exists
}

// RequireCommand ensures a command exists or returns an error wrapping
// core.ErrCommandNotFound
func (r *OSCommandRunner) RequireCommand(name string) error {
	if !r.CommandExists(name) {
		return fmt.Errorf("required command %q not found in PATH: %w", name, core.ErrCommandNotFound)
	}
	return nil
}

// RunCommand executes a command and returns stdout.
// Arguments are passed separately to exec, never through a shell.
func (r *OSCommandRunner) RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	return r.RunCommandInDir(ctx, "", name, args...)
}

// RunCommandInDir executes a command in a specific working directory
func (r *OSCommandRunner) RunCommandInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %q failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
