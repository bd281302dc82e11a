package source

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Heartbeat waits for output pipes after the
// context is done and the process has been killed.
const waitDelay = 100 * time.Millisecond

// Command runs a command on every heartbeat. The trimmed standard output is
// the liveness token. A non-zero exit status means "no signal" and is not an
// error; failing to run the command at all (e.g. missing binary) is.
type Command struct {
	Command string
	// Env is the full environment for the command; nil inherits the
	// current process environment.
	Env []string
}

// buildShellAwareCommand constructs an *exec.Cmd for a heartbeat command.
// A shell is used only when shell metacharacters are present (G204 mitigation).
func buildShellAwareCommand(ctx context.Context, cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return getShellCommand(ctx, cmdStr)
	}
	parts := strings.Fields(cmdStr)
	// #nosec G204
	return exec.CommandContext(ctx, parts[0], parts[1:]...)
}

func (c Command) Heartbeat(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.Command) == "" {
		return "", errors.New("empty heartbeat command")
	}
	cmd := buildShellAwareCommand(ctx, c.Command)
	cmd.Env = c.Env
	configureProcessGroup(cmd)
	cmd.WaitDelay = waitDelay
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// non-zero exit: receiver reachable but reports no heartbeat
			return "", nil
		}
		return "", err
	}
	return normalizeToken(string(out)), nil
}

func (c Command) Describe() string { return "cmd:" + c.Command }
