package player

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// killProcessesNamed kills every process other than this one whose name is name.
func killProcessesNamed(ctx context.Context, name string) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing processes: %w", err)
	}

	self := int32(os.Getpid()) //nolint:gosec // pids fit in int32
	killed := 0
	var errs []error
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		procName, err := p.NameWithContext(ctx)
		if err != nil || procName != name {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pid %d: %w", p.Pid, err))
			continue
		}
		killed++
	}
	return killed, errors.Join(errs...)
}
