package run

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/internal/config"
	"handover-launcher/internal/proc"
	"handover-launcher/internal/utils"
	"handover-launcher/services"
)

var (
	openBrowser   bool
	promptTimeout time.Duration
	historyLines  int
)

const separator = "=================================================="

var runCmd = &cobra.Command{
	Use:   "run [port]",
	Short: "Run the server in the foreground",
	Long: `Run the Shift Handover Log server in this terminal.
Without a port argument the port is asked on stdin, the default port is used when nothing is entered in time.
Ctrl+C stops the server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args)
	},
}

/**
 * Ask the port on stdin with a bounded wait
 * @param {io.Reader} in - Where the answer is read from
 * @param {io.Writer} out - Where the prompt is printed
 * @param {int} defaultPort - Used on timeout, empty input or invalid input
 * @param {int} lastUsed - Shown as a hint only
 * @param {time.Duration} timeout - How long to wait for a line
 * @returns {int} Chosen port
 */
func promptPort(in io.Reader, out io.Writer, defaultPort, lastUsed int, timeout time.Duration) int {
	fmt.Fprintf(out, "Enter port number (default: %d, last used: %d)\n", defaultPort, lastUsed)
	fmt.Fprintf(out, "You have %d seconds to enter a port, or default will be used...\n", int(timeout.Seconds()))
	fmt.Fprintf(out, "Port [%d]: ", defaultPort)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(in).ReadString('\n')
		answer <- strings.TrimSpace(line)
	}()

	var text string
	select {
	case text = <-answer:
	case <-time.After(timeout):
	}

	if text == "" {
		fmt.Fprintf(out, "\nNo input received. Using default port: %d\n", defaultPort)
		return defaultPort
	}
	port, err := utils.ParsePort(text)
	if err != nil {
		fmt.Fprintf(out, "ERROR: Invalid port '%s'. Using default %d.\n", text, defaultPort)
		return defaultPort
	}
	fmt.Fprintf(out, "Using port: %d\n", port)
	return port
}

/**
 * Port from the positional argument or the prompt
 * @returns {int} Port to start on
 * @returns {error} Invalid positional argument
 */
func choosePort(args []string, in io.Reader, out io.Writer, defaultPort, lastUsed int, timeout time.Duration) (int, error) {
	if len(args) > 0 {
		port, err := utils.ParsePort(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid port '%s', must be between 1 and 65535", args[0])
		}
		return port, nil
	}
	return promptPort(in, out, defaultPort, lastUsed, timeout), nil
}

// consolePrinter prints server output and crashes in the terminal
func consolePrinter(out io.Writer) proc.Observer {
	return proc.ObserverFunc(func(ev proc.Event) {
		switch ev.Type {
		case proc.EventOutput:
			fmt.Fprintf(out, "%s%s\n", services.ServerPrefix, ev.Line)
		case proc.EventEarlyExit, proc.EventUnexpectedExit:
			fmt.Fprintf(out, "\nERROR: %v\n", ev.Err)
		case proc.EventForceKill:
			fmt.Fprintln(out, "Server did not stop in time, killing it...")
		}
	})
}

func printPreconditionError(out io.Writer, err error) {
	var pre *services.PreconditionError
	if !errors.As(err, &pre) {
		fmt.Fprintf(out, "ERROR: Failed to start server: %v\n", err)
		return
	}
	switch pre.Kind {
	case services.PreconditionMissingBundle:
		fmt.Fprintln(out, "\nERROR: Problems found:")
		for _, p := range pre.Problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	case services.PreconditionPortBusy:
		fmt.Fprintf(out, "ERROR: %v\n", pre.Err)
		fmt.Fprintln(out, "Please choose another port or stop the application using it.")
	default:
		fmt.Fprintf(out, "ERROR: %v\n", pre)
	}
}

/**
 * Run the server until Ctrl+C or until it exits on its own
 * @returns {error} nil after a requested stop, root.Exit(1) on any failure
 */
func runServer(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.App()
	launcher, st := root.NewLauncher()
	layout := launcher.Layout()

	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, "Shift Handover Log - Command Line Server")
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out)

	if err := launcher.Check(); err != nil {
		printPreconditionError(out, err)
		return root.Exit(1)
	}
	fmt.Fprintf(out, "✓ Node.js found: %s\n", layout.NodeExe)
	fmt.Fprintln(out, "✓ All necessary folders found")
	fmt.Fprintln(out)

	timeout := promptTimeout
	if timeout <= 0 {
		timeout = cfg.Supervisor.PromptTimeout
	}
	port, err := choosePort(args, in, out, st.DefaultPort(), st.LoadPort(), timeout)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err)
		return root.Exit(1)
	}

	sup := launcher.Supervisor()
	sup.Subscribe(consolePrinter(out))
	sup.Subscribe(services.ServerLogObserver{})
	if openBrowser || cfg.App.OpenBrowser {
		sup.Subscribe(&services.BrowserOpener{
			Runner: services.ExecRunner{},
			Sup:    sup,
			Delay:  cfg.App.BrowserDelay,
			Message: func(msg string) {
				fmt.Fprintln(out, msg)
			},
		})
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out)
	fmt.Fprintln(out, separator)
	fmt.Fprintf(out, "Starting server on port %d...\n", port)
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out)
	h, err := launcher.Start(sigCtx, port)
	if err != nil {
		printPreconditionError(out, err)
		return root.Exit(1)
	}
	for _, line := range services.Banner(port) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Press Ctrl+C to stop the server")
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out)

	select {
	case <-sigCtx.Done():
		fmt.Fprintln(out, "\n\nStopping server...")
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Supervisor.GracePeriod+5*time.Second)
		defer cancel()
		if err := launcher.Stop(stopCtx); err != nil && !errors.Is(err, proc.ErrNotRunning) {
			fmt.Fprintf(out, "ERROR: %v\n", err)
			return root.Exit(1)
		}
		fmt.Fprintln(out, "Server stopped.")
		return nil
	case <-h.Done():
	}

	d := sup.Detail()
	fmt.Fprintf(out, "Server exited: %s\n", d.LastExitReason)
	if tail := launcher.History().Tail(historyLines); len(tail) > 0 {
		fmt.Fprintf(out, "Last %d lines of server output:\n", len(tail))
		for _, line := range tail {
			fmt.Fprintf(out, "  %s\n", line.Text)
		}
	}
	return root.Exit(1)
}

func init() {
	root.RootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	runCmd.Flags().BoolVar(&openBrowser, "open", false, "Open the browser once the server is up")
	runCmd.Flags().DurationVar(&promptTimeout, "prompt-timeout", 0, "How long to wait for a port on stdin (default supervisor.prompt_timeout)")
	runCmd.Flags().IntVar(&historyLines, "crash-lines", 20, "Server output lines shown after an unexpected exit")

	runCmd.Example = `  # ask for the port
  handover-launcher run
  # start on port 8600 and open the browser
  handover-launcher run 8600 --open`
}
