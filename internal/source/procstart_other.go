//go:build !linux

package source

import (
	"context"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// procStartUnix returns the start time of pid in Unix seconds, or 0 when it
// cannot be determined.
func procStartUnix(ctx context.Context, pid int) int64 {
	if pid <= 0 {
		return 0
	}
	p, err := gopsproc.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return 0
	}
	ms, err := p.CreateTimeWithContext(ctx)
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}
