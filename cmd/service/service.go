package service

import (
	"time"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/rpc"
)

var address string

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Control a running 'serve' launcher (start/stop/status/logs)",
	Long: `Control the server through the control API of a launcher started with 'serve'.
The address defaults to server.address.`,
}

const serviceExample = `  # start the server on the saved port
  handover-launcher service start
  # follow the server output
  handover-launcher service logs -f`

// newClient 创建控制接口客户端
func newClient(timeout time.Duration) *rpc.LauncherClient {
	opts := rpc.DefaultOptions()
	if address != "" {
		opts.WithAddress(address)
	}
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return rpc.NewLauncherClient(rpc.NewTransport(opts))
}

func init() {
	root.RootCmd.AddCommand(serviceCmd)
	serviceCmd.PersistentFlags().StringVar(&address, "address", "", "Control API address (default server.address)")

	serviceCmd.Example = serviceExample
}
