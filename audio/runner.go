package audio

import (
	"context"
	"os/exec"
)

// CommandRunner runs external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns combined output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// LookPath resolves a binary on PATH.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
