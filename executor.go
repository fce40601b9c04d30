package pichecker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"
	"unicode/utf8"
)

type Executor interface {
	Execute(ctx context.Context, command string) (*Result, error)
}

// ShellExecutor runs commands through a shell interpreter.
// Exit codes and stderr output are reported inside the Result;
// only failures to launch or wait for the process are returned as errors
type ShellExecutor struct {
	// Defaults to /bin/sh
	Shell string
	// How long to wait for output pipes after the shell exits or gets cancelled.
	// Defaults to DefaultWaitDelay
	WaitDelay time.Duration
}

const DefaultWaitDelay = 500 * time.Millisecond

func (this *ShellExecutor) Execute(ctx context.Context, command string) (*Result, error) {

	shell := "/bin/sh"
	if this != nil && this.Shell != "" {
		shell = this.Shell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)

	//	cancellation takes down the whole process group, not just the shell
	setProcessGroup(cmd)

	cmd.WaitDelay = DefaultWaitDelay
	if this != nil && this.WaitDelay > 0 {
		cmd.WaitDelay = this.WaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	returnCode := 0

	if err := cmd.Run(); err != nil {

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("exec %s: %w", shell, ctxErr)
		}

		var exitErr *exec.ExitError

		switch {
		case errors.As(err, &exitErr):
			returnCode = exitCode(exitErr)
		case errors.Is(err, exec.ErrWaitDelay):
			//	the shell itself exited cleanly but left a background child holding the pipes
			slog.Debug("Shell output pipes closed forcibly",
				slog.String("command", command))
		default:
			return nil, fmt.Errorf("exec %s: %v", shell, err)
		}
	}

	if !utf8.Valid(stdout.Bytes()) {
		return nil, errors.New("stdout is not valid utf-8")
	}

	if !utf8.Valid(stderr.Bytes()) {
		return nil, errors.New("stderr is not valid utf-8")
	}

	return &Result{
		Command:    command,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ReturnCode: returnCode,
		Timestamp:  time.Now(),
	}, nil
}

// processes killed by a signal report the negated signal number
func exitCode(exitErr *exec.ExitError) int {

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return -int(status.Signal())
	}

	return exitErr.ExitCode()
}
