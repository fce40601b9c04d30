//go:build unix

package pichecker

import (
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
