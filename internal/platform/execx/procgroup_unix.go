//go:build !windows

package execx

import (
	"os/exec"
	"syscall"
)

// isolate puts the child in its own process group so a timeout kills the
// whole tree (grass spawns python, which spawns modules)
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
