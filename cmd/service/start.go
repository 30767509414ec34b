package service

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/utils"
	"handover-launcher/services"
)

var startCmd = &cobra.Command{
	Use:   "start [port]",
	Short: "Start the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.OutOrStdout(), args)
	},
}

/**
 * Start the server through the control API
 * @param {io.Writer} out - Where the banner is printed
 * @param {[]string} args - Optional port, the saved port otherwise
 * @returns {error} Invalid port, unreachable control API or *rpc.APIError
 */
func startServer(out io.Writer, args []string) error {
	port := 0
	if len(args) > 0 {
		p, err := utils.ParsePort(args[0])
		if err != nil {
			return &root.ExitCodeError{Code: 1, Err: err}
		}
		port = p
	}

	client := newClient(0)
	defer client.Close()

	st, err := client.Start(port)
	if err != nil {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("failed to start server: %w", err)}
	}
	fmt.Fprintf(out, "Server started (PID %d)\n", st.Process.Pid)
	for _, line := range services.Banner(st.Process.Port) {
		fmt.Fprintln(out, line)
	}
	return nil
}

func init() {
	serviceCmd.AddCommand(startCmd)
}
