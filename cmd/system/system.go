package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/models"
	"handover-launcher/internal/store"
	"handover-launcher/services"
)

var (
	mode         string
	delaySeconds int
	firewallPort int
)

// osTimeout bounds every schtasks/netsh call
const osTimeout = 30 * time.Second

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start the launcher at logon (Windows scheduled task)",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register the logon task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(root.Layout())
		return enableAutoStart(cmd.Context(), cmd.OutOrStdout(), root.NewAutoStart(st))
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the logon task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(root.Layout())
		ctx, cancel := context.WithTimeout(context.Background(), osTimeout)
		defer cancel()
		if err := root.NewAutoStart(st).Disable(ctx); err != nil {
			return failure(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Auto-start disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the logon task exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(root.Layout())
		ctx, cancel := context.WithTimeout(context.Background(), osTimeout)
		defer cancel()
		registered, err := root.NewAutoStart(st).Status(ctx)
		if err != nil {
			return failure(err)
		}
		cfg := st.Load()
		root.RenderProperties(cmd.OutOrStdout(), []root.Property{
			{Name: "Task", Value: services.AutoStartTaskName},
			{Name: "Registered", Value: registered},
			{Name: "Mode", Value: cfg.AutoStartMode},
			{Name: "Delay (s)", Value: cfg.AutoStartDelaySeconds},
		})
		return nil
	},
}

var firewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Allow other machines to reach the server (Windows firewall)",
}

var firewallOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Create the inbound rule for the port",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(root.Layout())
		port := firewallPort
		if port == 0 {
			port = st.LoadPort()
		}
		ctx, cancel := context.WithTimeout(context.Background(), osTimeout)
		defer cancel()
		if err := root.NewFirewall(st).Open(ctx, port); err != nil {
			return failure(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Firewall rule created: %s\n", services.RuleName(port))
		return nil
	},
}

var firewallCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Remove the inbound rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(root.Layout())
		ctx, cancel := context.WithTimeout(context.Background(), osTimeout)
		defer cancel()
		if err := root.NewFirewall(st).Close(ctx); err != nil {
			return failure(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Firewall rule removed")
		return nil
	},
}

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "Show the address other machines use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := store.New(root.Layout()).LoadPort()
		return showIP(cmd.OutOrStdout(), port)
	},
}

func failure(err error) error {
	if errors.Is(err, services.ErrUnsupportedPlatform) {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("%w: only available on Windows", err)}
	}
	return &root.ExitCodeError{Code: 1, Err: err}
}

func enableAutoStart(ctx context.Context, out io.Writer, a *services.AutoStart) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m := models.AutoStartMode(mode)
	if !m.Valid() {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("invalid mode %q, use gui or cli", mode)}
	}
	if delaySeconds < 0 {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("invalid delay %d", delaySeconds)}
	}
	ctx, cancel := context.WithTimeout(ctx, osTimeout)
	defer cancel()
	if err := a.Enable(ctx, m, delaySeconds); err != nil {
		return failure(err)
	}
	fmt.Fprintf(out, "Auto-start enabled (%s mode, delay %ds)\n", m, delaySeconds)
	return nil
}

// showIP 显示局域网访问地址
func showIP(out io.Writer, port int) error {
	ip, err := services.LANIP()
	if err != nil {
		return failure(err)
	}
	url, _ := services.LANURL(port)
	fmt.Fprintf(out, "LAN IP: %s\n", ip)
	fmt.Fprintf(out, "Access from other computers: %s\n", url)
	return nil
}

func init() {
	root.RootCmd.AddCommand(autostartCmd)
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
	autostartEnableCmd.Flags().StringVar(&mode, "mode", string(models.AutoStartGUI), "gui opens the panel, cli runs the server on the saved port")
	autostartEnableCmd.Flags().IntVar(&delaySeconds, "delay", 0, "Seconds to wait after logon")

	root.RootCmd.AddCommand(firewallCmd)
	firewallCmd.AddCommand(firewallOpenCmd, firewallCloseCmd)
	firewallOpenCmd.Flags().IntVar(&firewallPort, "port", 0, "Port to open (default: saved port)")

	root.RootCmd.AddCommand(ipCmd)
}
