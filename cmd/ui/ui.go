package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/config"
	"handover-launcher/internal/logger"
	"handover-launcher/internal/tui"
	"handover-launcher/services"
)

var openBrowser bool

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the launcher panel in the terminal",
	Long: `Open an interactive panel: choose the port, start and stop the server, follow its output,
manage auto-start and the firewall rule. Closing the panel stops the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPanel()
	},
}

/**
 * Run the panel until the user quits
 * @returns {error} Terminal failure of the bubbletea program
 * @description
 * - The supervisor forwards its events to the panel through a tui.Sink
 * - The server is stopped when the panel exits, whatever the way it exits
 */
func runPanel() error {
	cfg := config.App()
	launcher, st := root.NewLauncher()
	sup := launcher.Supervisor()

	sink := tui.NewSink(256)
	sup.Subscribe(sink)
	sup.Subscribe(services.ServerLogObserver{})
	if openBrowser {
		sup.Subscribe(&services.BrowserOpener{
			Runner:  services.ExecRunner{},
			Sup:     sup,
			Delay:   cfg.App.BrowserDelay,
			Message: sink.Info,
		})
	}

	model := tui.New(launcher, root.NewAutoStart(st), root.NewFirewall(st), sink, cfg.Supervisor.HistoryLines)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()
	sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Supervisor.GracePeriod+5*time.Second)
	defer cancel()
	if err := launcher.Shutdown(ctx); err != nil {
		logger.Errorf("Failed to stop server: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("panel: %w", runErr)
	}
	return nil
}

func init() {
	root.RootCmd.AddCommand(uiCmd)
	uiCmd.Flags().BoolVar(&openBrowser, "open", true, "Open the browser once the server is up")
}
