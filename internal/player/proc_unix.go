//go:build !windows

package player

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcAttr puts the player in its own process group.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess sends SIGTERM to the whole process group led by p.
func terminateProcess(p *os.Process) error {
	err := syscall.Kill(-p.Pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
