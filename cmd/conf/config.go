package conf

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/config"
	"handover-launcher/internal/store"
	"handover-launcher/internal/utils"
)

var setDefault bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the saved port configuration",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show server_config.json and the launcher settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		layout := root.Layout()
		showConfig(cmd.OutOrStdout(), layout, store.New(layout), config.App())
	},
}

var setPortCmd = &cobra.Command{
	Use:   "set-port <port>",
	Short: "Save the port used by the next start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPort(cmd.OutOrStdout(), store.New(root.Layout()), args[0], setDefault)
	},
}

func showConfig(out io.Writer, layout config.Layout, st *store.PortStore, cfg config.AppConfig) {
	pc := st.Load()
	firewall := "-"
	if pc.FirewallPort != nil {
		firewall = fmt.Sprintf("%d", *pc.FirewallPort)
	}
	root.RenderProperties(out, []root.Property{
		{Name: "Base directory", Value: layout.BaseDir},
		{Name: "Node.js", Value: layout.NodeExe},
		{Name: "Config file", Value: st.Path()},
		{Name: "Saved port", Value: pc.Port},
		{Name: "Default port", Value: st.DefaultPort()},
		{Name: "Auto-start", Value: fmt.Sprintf("%v (%s, delay %ds)", pc.AutoStartEnabled, pc.AutoStartMode, pc.AutoStartDelaySeconds)},
		{Name: "Firewall port", Value: firewall},
		{Name: "Grace period", Value: cfg.Supervisor.GracePeriod},
		{Name: "Health check delay", Value: cfg.Supervisor.HealthCheckDelay},
		{Name: "Output drain timeout", Value: cfg.Supervisor.DrainTimeout},
		{Name: "Control API", Value: cfg.Server.Address},
	})
}

/**
 * Validate and store a port
 * @param {string} text - Port given on the command line
 * @param {bool} asDefault - Write server_default_config.json instead of the last-used port
 */
func setPort(out io.Writer, st *store.PortStore, text string, asDefault bool) error {
	port, err := utils.ParsePort(text)
	if err != nil {
		return &root.ExitCodeError{Code: 1, Err: err}
	}
	if asDefault {
		err = st.SaveDefaultPort(port)
	} else {
		err = st.SavePort(port)
	}
	if err != nil {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("error saving configuration: %w", err)}
	}
	if asDefault {
		fmt.Fprintf(out, "Default port set to %d\n", port)
	} else {
		fmt.Fprintf(out, "Port %d saved\n", port)
	}
	return nil
}

func init() {
	root.RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(setPortCmd)
	setPortCmd.Flags().BoolVar(&setDefault, "default", false, "Set the default port (server_default_config.json)")

	configCmd.Example = `  handover-launcher config show
  handover-launcher config set-port 8600
  handover-launcher config set-port 3000 --default`
}
