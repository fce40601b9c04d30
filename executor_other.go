//go:build !unix

package pichecker

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
