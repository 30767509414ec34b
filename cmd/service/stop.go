package service

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
)

var stopTimeout time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer(cmd.OutOrStdout())
	},
}

// stopServer 通过控制接口停止服务器，等待进程退出
func stopServer(out io.Writer) error {
	client := newClient(stopTimeout)
	defer client.Close()

	st, err := client.Stop()
	if err != nil {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("failed to stop server: %w", err)}
	}
	if st.Process.ForcedKill {
		fmt.Fprintln(out, "Server stopped (killed after the grace period).")
	} else {
		fmt.Fprintln(out, "Server stopped.")
	}
	return nil
}

func init() {
	serviceCmd.AddCommand(stopCmd)
	// the stop waits for the grace period and a possible kill
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", 30*time.Second, "How long to wait for the server to exit")
}
