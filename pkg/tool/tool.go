package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Tool represents a located external command-line tool.
type Tool struct {
	Path string // absolute path to the binary
	Name string // binary name, e.g. "aptly"
}

// Find locates the named tool, honoring an environment-variable override
// first and then searching PATH. The override may be a bare binary name or
// a full path.
func Find(envVar, name string) (*Tool, error) {
	if override := os.Getenv(envVar); override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return nil, fmt.Errorf("%s=%q not found in PATH: %w", envVar, override, err)
		}
		resolved := override
		if idx := strings.LastIndex(resolved, "/"); idx >= 0 {
			resolved = resolved[idx+1:]
		}
		return &Tool{Path: path, Name: resolved}, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH (set %s to override): %w", name, envVar, err)
	}
	return &Tool{Path: path, Name: name}, nil
}

// Runner executes a tool invocation and returns its stdout. Implementations
// other than the default exist for testing.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// Run executes the tool with the given arguments, returning stdout.
// Stderr from a failed invocation is folded into the returned error.
func (t *Tool) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.Path, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, ExecError(err)
	}
	return out, nil
}

// ExecError unwraps an *exec.ExitError and attaches its trimmed stderr, so
// the invoked tool's own diagnostic is the user-visible error.
func ExecError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
