package services

import (
	"context"
	"fmt"
	"runtime"

	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/store"
)

// AutoStartTaskName is the scheduled task registered for logon start
const AutoStartTaskName = "ShiftHandoverLog"

/**
 * AutoStart manages the Windows scheduled task that runs the launcher at logon
 * @property {string} exe - Launcher executable started by the task
 * @property {string} baseDir - Bundle directory passed with --base-dir
 */
type AutoStart struct {
	runner  CommandRunner
	store   *store.PortStore
	exe     string
	baseDir string
	goos    string
}

func NewAutoStart(runner CommandRunner, st *store.PortStore, exe, baseDir string) *AutoStart {
	return &AutoStart{runner: runner, store: st, exe: exe, baseDir: baseDir, goos: runtime.GOOS}
}

// taskCommand is the /TR value of the scheduled task
func (a *AutoStart) taskCommand(mode models.AutoStartMode, port int) string {
	cmd := `"` + a.exe + `"`
	if mode == models.AutoStartCLI {
		cmd += fmt.Sprintf(" run %d", port)
	} else {
		cmd += " ui"
	}
	if a.baseDir != "" {
		cmd += ` --base-dir "` + a.baseDir + `"`
	}
	return cmd
}

/**
 * Register the logon task
 * @param {context.Context} ctx - Bounds the schtasks call
 * @param {models.AutoStartMode} mode - gui starts the panel, cli runs the server on the saved port
 * @param {int} delaySeconds - Delay after logon, 0 for none
 * @returns {error} ErrUnsupportedPlatform off Windows, the schtasks error otherwise
 * @description
 * - Existing task is replaced (/F)
 * - PortConfig records the new settings only when schtasks succeeded
 */
func (a *AutoStart) Enable(ctx context.Context, mode models.AutoStartMode, delaySeconds int) error {
	if a.goos != "windows" {
		return ErrUnsupportedPlatform
	}
	if !mode.Valid() {
		return fmt.Errorf("invalid auto-start mode '%s': must be gui or cli", mode)
	}
	if delaySeconds < 0 {
		return fmt.Errorf("invalid auto-start delay %d", delaySeconds)
	}

	port := a.store.LoadPort()
	args := []string{
		"/Create", "/F",
		"/TN", AutoStartTaskName,
		"/SC", "ONLOGON",
		"/RL", "LIMITED",
		"/TR", a.taskCommand(mode, port),
	}
	if delaySeconds > 0 {
		// schtasks 的延迟格式为 mmmm:ss
		args = append(args, "/DELAY", fmt.Sprintf("%04d:%02d", delaySeconds/60, delaySeconds%60))
	}
	if _, err := a.runner.Run(ctx, "schtasks", args...); err != nil {
		logger.Errorf("Failed to register auto-start task: %v", err)
		return err
	}
	logger.Infof("Auto-start task '%s' registered (mode %s, delay %ds)", AutoStartTaskName, mode, delaySeconds)

	return a.store.Update(func(cfg *models.PortConfig) {
		cfg.AutoStartEnabled = true
		cfg.AutoStartMode = mode
		cfg.AutoStartDelaySeconds = delaySeconds
	})
}

// Disable removes the logon task
func (a *AutoStart) Disable(ctx context.Context) error {
	if a.goos != "windows" {
		return ErrUnsupportedPlatform
	}
	if _, err := a.runner.Run(ctx, "schtasks", "/Delete", "/F", "/TN", AutoStartTaskName); err != nil {
		logger.Errorf("Failed to remove auto-start task: %v", err)
		return err
	}
	logger.Infof("Auto-start task '%s' removed", AutoStartTaskName)

	return a.store.Update(func(cfg *models.PortConfig) {
		cfg.AutoStartEnabled = false
	})
}

/**
 * Query whether the logon task exists
 * @returns {bool} true when schtasks knows the task
 */
func (a *AutoStart) Status(ctx context.Context) (bool, error) {
	if a.goos != "windows" {
		return false, ErrUnsupportedPlatform
	}
	if _, err := a.runner.Run(ctx, "schtasks", "/Query", "/TN", AutoStartTaskName); err != nil {
		// 任务不存在时 schtasks 返回非零
		return false, nil
	}
	return true, nil
}
