//go:build !windows

package utils

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// SetNewPG puts the child in its own process group so that terminal Ctrl+C reaches
// only the launcher, which then stops the child itself
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

/**
 * Ask a process to exit (SIGTERM)
 * @param {*os.Process} p - Process to terminate
 * @returns {error} Returns error if the signal could not be delivered
 */
func TerminateProcess(p *os.Process) error {
	if err := p.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM to PID %d: %w", p.Pid, err)
	}
	return nil
}

/**
 * Force kill a process and its process group (SIGKILL)
 * @param {*os.Process} p - Process to kill
 * @returns {error} Returns error if the process could not be killed
 */
func KillProcess(p *os.Process) error {
	// the group id equals the child pid because of SetNewPG
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	if err := p.Kill(); err != nil {
		return fmt.Errorf("kill PID %d: %w", p.Pid, err)
	}
	return nil
}

/**
 * Kill whatever is left in the process group of an exited leader
 * @param {int} pgid - Pid of the leader started with SetNewPG
 * @returns {error} nil when the group is already empty
 */
func KillGroup(pgid int) error {
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("kill process group %d: %w", pgid, err)
	}
	return nil
}
