//go:build unix

package executil

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts c as the leader of a new process group and makes
// context cancellation kill the whole group.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
