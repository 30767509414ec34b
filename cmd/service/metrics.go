package service

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/models"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the key counters of the running launcher",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showMetrics(cmd.OutOrStdout())
	},
}

func healthRows(h *models.HealthResponse) []root.Property {
	return []root.Property{
		{Name: "Version", Value: h.Version},
		{Name: "Status", Value: h.Status},
		{Name: "Uptime", Value: h.Uptime},
		{Name: "Server state", Value: string(h.Metrics.ServerState)},
		{Name: "Starts", Value: strconv.FormatInt(h.Metrics.Starts, 10)},
		{Name: "Crashes", Value: strconv.FormatInt(h.Metrics.Crashes, 10)},
		{Name: "Requests", Value: strconv.FormatInt(h.Metrics.TotalRequests, 10)},
		{Name: "Failed requests", Value: strconv.FormatInt(h.Metrics.ErrorRequests, 10)},
	}
}

// showMetrics 读取 /healthz 中的指标摘要
func showMetrics(out io.Writer) error {
	client := newClient(0)
	defer client.Close()

	h, err := client.Health()
	if err != nil {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("failed to query launcher: %w", err)}
	}
	root.RenderProperties(out, healthRows(h))
	return nil
}

func init() {
	serviceCmd.AddCommand(metricsCmd)
}
