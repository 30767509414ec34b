package services

import (
	"context"
	"fmt"
	"runtime"

	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/store"
	"handover-launcher/internal/utils"
)

// FirewallRulePrefix starts the name of the inbound rule, the port is appended
const FirewallRulePrefix = "Shift Handover Log"

// Firewall manages the Windows Firewall inbound rule for the server port
type Firewall struct {
	runner CommandRunner
	store  *store.PortStore
	goos   string
}

func NewFirewall(runner CommandRunner, st *store.PortStore) *Firewall {
	return &Firewall{runner: runner, store: st, goos: runtime.GOOS}
}

// RuleName 返回指定端口的规则名称
func RuleName(port int) string {
	return fmt.Sprintf("%s (TCP %d)", FirewallRulePrefix, port)
}

func (f *Firewall) deleteRule(ctx context.Context, port int) error {
	_, err := f.runner.Run(ctx, "netsh", "advfirewall", "firewall", "delete", "rule", "name="+RuleName(port))
	return err
}

/**
 * Allow inbound TCP connections on port
 * @param {context.Context} ctx - Bounds the netsh calls
 * @param {int} port - Server port
 * @returns {error} ErrUnsupportedPlatform off Windows, utils.ErrInvalidPort, or the netsh error
 * @description
 * - A rule opened earlier for another port is removed first
 * - PortConfig.firewallPort records the port on success
 */
func (f *Firewall) Open(ctx context.Context, port int) error {
	if f.goos != "windows" {
		return ErrUnsupportedPlatform
	}
	if err := utils.ValidatePort(port); err != nil {
		return err
	}

	if prev := f.store.Load().FirewallPort; prev != nil && *prev != port {
		if err := f.deleteRule(ctx, *prev); err != nil {
			logger.Warnf("Failed to remove previous firewall rule for port %d: %v", *prev, err)
		}
	}

	_, err := f.runner.Run(ctx, "netsh", "advfirewall", "firewall", "add", "rule",
		"name="+RuleName(port),
		"dir=in",
		"action=allow",
		"protocol=TCP",
		fmt.Sprintf("localport=%d", port),
	)
	if err != nil {
		logger.Errorf("Failed to open firewall port %d: %v", port, err)
		return err
	}
	logger.Infof("Firewall rule '%s' created", RuleName(port))

	return f.store.Update(func(cfg *models.PortConfig) {
		cfg.FirewallPort = &port
	})
}

/**
 * Remove the inbound rule created by Open
 * @returns {error} ErrUnsupportedPlatform off Windows, the netsh error otherwise
 * @description
 * - Nothing to do when PortConfig has no firewall port
 */
func (f *Firewall) Close(ctx context.Context) error {
	if f.goos != "windows" {
		return ErrUnsupportedPlatform
	}
	prev := f.store.Load().FirewallPort
	if prev == nil {
		return nil
	}
	if err := f.deleteRule(ctx, *prev); err != nil {
		logger.Errorf("Failed to close firewall port %d: %v", *prev, err)
		return err
	}
	logger.Infof("Firewall rule '%s' removed", RuleName(*prev))

	return f.store.Update(func(cfg *models.PortConfig) {
		cfg.FirewallPort = nil
	})
}
