//go:build windows

package source

import (
	"context"
	"os/exec"
)

// getShellCommand returns a shell command for Windows systems
func getShellCommand(ctx context.Context, script string) *exec.Cmd {
	// #nosec G204
	return exec.CommandContext(ctx, "cmd", "/c", script)
}

// configureProcessGroup is a no-op on Windows; WaitDelay still bounds the
// wait for inherited pipes.
func configureProcessGroup(cmd *exec.Cmd) {}
