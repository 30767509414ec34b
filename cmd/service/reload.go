package service

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload launcher.yaml in the running launcher",
	Long: `Ask the launcher started with 'serve' to re-read launcher.yaml.
Grace period, health check delay and history size apply to the next start.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reloadConfig(cmd.OutOrStdout())
	},
}

/**
 * Reload configuration via the control API
 * @param {io.Writer} out - Where the result is printed
 * @returns {error} ExitCodeError when the control API refuses or is unreachable
 */
func reloadConfig(out io.Writer) error {
	client := newClient(0)
	defer client.Close()

	if err := client.Reload(); err != nil {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("failed to reload configuration: %w", err)}
	}
	fmt.Fprintln(out, "Configuration reloaded.")
	return nil
}

func init() {
	serviceCmd.AddCommand(reloadCmd)
}
