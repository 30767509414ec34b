//go:build windows

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

const CTRL_BREAK_EVENT = 1

var (
	kernel32                     = syscall.NewLazyDLL("kernel32.dll")
	procGenerateConsoleCtrlEvent = kernel32.NewProc("GenerateConsoleCtrlEvent")
)

// SetNewPG 设置进程属性，子进程拥有独立的进程组，才能单独接收CTRL_BREAK
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

/**
 * Ask a process to exit by sending CTRL_BREAK to its process group
 * @param {*os.Process} p - Process started with SetNewPG
 * @returns {error} Returns error if the event could not be generated
 */
func TerminateProcess(p *os.Process) error {
	ret, _, err := procGenerateConsoleCtrlEvent.Call(uintptr(CTRL_BREAK_EVENT), uintptr(p.Pid))
	if ret == 0 {
		return fmt.Errorf("send CTRL_BREAK to PID %d: %v", p.Pid, err)
	}
	return nil
}

/**
 * Force kill a process and its children
 * @param {*os.Process} p - Process to kill
 * @returns {error} Returns error if the process could not be killed
 * @description
 * - taskkill /T walks the tree while the leader is alive, p.Kill is the fallback
 */
func KillProcess(p *os.Process) error {
	cmd := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(p.Pid))
	if err := cmd.Run(); err == nil {
		return nil
	}
	if err := p.Kill(); err != nil {
		return fmt.Errorf("kill PID %d: %w", p.Pid, err)
	}
	return nil
}

// KillGroup 进程组的首进程已退出时无法再按树查找子进程，由输出超时兜底
func KillGroup(pgid int) error {
	return nil
}
