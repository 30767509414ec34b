package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.OutOrStdout())
	},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

/**
 * Rows of the status table
 * @param {*models.LauncherStatus} st - Status returned by the control API
 * @returns {[]root.Property} State first, process details only when they exist
 */
func statusRows(st *models.LauncherStatus) []root.Property {
	d := st.Process
	rows := []root.Property{
		{Name: "State", Value: d.State},
		{Name: "Base directory", Value: st.BaseDir},
		{Name: "Saved port", Value: st.SavedPort},
		{Name: "Default port", Value: st.DefaultPort},
	}
	if d.State.Active() {
		rows = append(rows,
			root.Property{Name: "PID", Value: d.Pid},
			root.Property{Name: "Port", Value: d.Port},
			root.Property{Name: "URL", Value: st.URL},
			root.Property{Name: "Started", Value: formatTime(d.StartTime)},
			root.Property{Name: "Output lines", Value: d.OutputLines},
		)
	}
	if d.LastExitReason != "" {
		rows = append(rows,
			root.Property{Name: "Last exit", Value: formatTime(d.LastExitTime)},
			root.Property{Name: "Last exit reason", Value: d.LastExitReason},
			root.Property{Name: "Forced kill", Value: d.ForcedKill},
		)
	}
	if len(st.Problems) > 0 {
		rows = append(rows, root.Property{Name: "Problems", Value: strings.Join(st.Problems, "\n")})
	}
	return rows
}

func showStatus(out io.Writer) error {
	client := newClient(0)
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		return &root.ExitCodeError{Code: 1, Err: fmt.Errorf("failed to query status: %w", err)}
	}
	root.RenderProperties(out, statusRows(st))
	return nil
}

func init() {
	serviceCmd.AddCommand(statusCmd)
}
