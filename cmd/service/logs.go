package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/models"
	"handover-launcher/internal/rpc"
	"handover-launcher/services"
)

var (
	follow    bool
	lineCount int
	interval  time.Duration
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the server output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client := newClient(0)
		defer client.Close()
		if err := printLogs(ctx, client, cmd.OutOrStdout()); err != nil {
			return &root.ExitCodeError{Code: 1, Err: err}
		}
		return nil
	},
}

func printLines(out io.Writer, lines []models.LogLine) int64 {
	var last int64
	for _, l := range lines {
		fmt.Fprintf(out, "%s%s\n", services.ServerPrefix, l.Text)
		last = l.Seq
	}
	return last
}

/**
 * Print the last lines, then poll for new ones when following
 * @param {context.Context} ctx - Cancelled by Ctrl+C
 * @param {*rpc.LauncherClient} client - Control API client
 * @param {io.Writer} out - Destination
 */
func printLogs(ctx context.Context, client *rpc.LauncherClient, out io.Writer) error {
	lines, err := client.Logs(0, lineCount)
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	since := printLines(out, lines)
	if !follow {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		lines, err := client.Logs(since, 0)
		if err != nil {
			return fmt.Errorf("failed to read logs: %w", err)
		}
		if last := printLines(out, lines); last > 0 {
			since = last
		}
	}
}

func init() {
	serviceCmd.AddCommand(logsCmd)
	logsCmd.Flags().SortFlags = false
	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new output")
	logsCmd.Flags().IntVarP(&lineCount, "lines", "n", 100, "Number of lines printed first")
	logsCmd.Flags().DurationVar(&interval, "interval", time.Second, "Poll interval with --follow")
}
