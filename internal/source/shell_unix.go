//go:build !windows

package source

import (
	"context"
	"os/exec"
	"syscall"
)

// getShellCommand returns a shell command for Unix systems
func getShellCommand(ctx context.Context, script string) *exec.Cmd {
	// #nosec G204
	return exec.CommandContext(ctx, "/bin/sh", "-c", script)
}

// configureProcessGroup starts cmd in its own process group and kills the
// whole group on cancellation, so children of a shell die with it.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
