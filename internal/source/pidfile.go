package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// PIDFile reports the receiver as alive while the process named in a pid
// file exists. The token is "pid <n>". A missing file or a pid that is not
// running means no signal; unreadable or malformed content is an error.
//
// Lines after the pid may carry JSON metadata. When one of them has a
// positive "start_unix" and the live process started at a different second,
// the pid has been reused and the receiver counts as gone.
type PIDFile struct {
	Path string
}

func (p PIDFile) Heartbeat(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	pid, start, err := parsePIDFile(data)
	if err != nil {
		return "", fmt.Errorf("invalid pid in %s: %w", p.Path, err)
	}
	if pid <= 0 {
		return "", nil
	}
	alive, err := gopsproc.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return "", err
	}
	if !alive {
		return "", nil
	}
	if start > 0 {
		if cur := procStartUnix(ctx, pid); cur > 0 && cur != start {
			return "", nil
		}
	}
	return "pid " + strconv.Itoa(pid), nil
}

func (p PIDFile) Describe() string { return "pidfile:" + p.Path }

type pidMeta struct {
	StartUnix int64 `json:"start_unix"`
}

// parsePIDFile reads the pid from the first line and the recorded start time
// from the first later line that decodes as metadata. Other lines are ignored.
func parsePIDFile(data []byte) (pid int, start int64, err error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	first := strings.TrimSpace(lines[0])
	if first == "" {
		return 0, 0, fmt.Errorf("empty pid line")
	}
	if pid, err = strconv.Atoi(first); err != nil {
		return 0, 0, err
	}
	if pid > 1<<31-1 {
		return 0, 0, fmt.Errorf("pid %d out of range", pid)
	}
	for _, l := range lines[1:] {
		var m pidMeta
		if json.Unmarshal([]byte(strings.TrimSpace(l)), &m) == nil && m.StartUnix > 0 {
			return pid, m.StartUnix, nil
		}
	}
	return pid, 0, nil
}
