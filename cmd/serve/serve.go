package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"handover-launcher/cmd/root"
	"handover-launcher/controllers"
	"handover-launcher/internal/config"
	"handover-launcher/internal/logger"
	"handover-launcher/services"
)

var (
	listenAddress string
	startPort     int
	autoStart     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control API",
	Long: `Run the HTTP control API (/launcher/api/v1) that starts and stops the server,
serves its output and exposes prometheus metrics. Stops the server on exit.`,
	Annotations: map[string]string{root.AnnotationConsoleLog: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.Context())
	},
}

// shutdownTimeout bounds the stop of the server when the control API exits
const shutdownTimeout = 30 * time.Second

/**
 * Serve the control API until SIGINT/SIGTERM
 * @param {context.Context} ctx - Parent context
 * @returns {error} Listener failure
 * @description
 * - --start launches the server right away on --port or the saved port
 * - On exit the HTTP server is shut down first, then the Node.js server
 */
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.App()
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	launcher, st := root.NewLauncher()
	launcher.Supervisor().Subscribe(services.ServerLogObserver{})
	router := controllers.NewRouter(launcher, root.NewAutoStart(st), root.NewFirewall(st), cfg.Metrics, root.SoftwareVer)

	address := listenAddress
	if address == "" {
		address = cfg.Server.Address
	}
	listeners, err := CreateListeners([]ListenAddr{ParseListenAddr(address)})
	if len(listeners) == 0 {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Handler: router}
	errCh := make(chan error, len(listeners))
	var wg sync.WaitGroup
	for _, l := range listeners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Infof("Control API listening on %s", l.Addr())
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if cfg.Metrics.Pushgateway != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			launcher.Metrics().RunPusher(sigCtx, cfg.Metrics.Pushgateway, cfg.Metrics.PushInterval)
		}()
	}

	if autoStart {
		port := startPort
		if port == 0 {
			port = st.LoadPort()
		}
		if _, err := launcher.Start(context.Background(), port); err != nil {
			logger.Errorf("Failed to start server: %v", err)
		}
	}

	var serveErr error
	select {
	case <-sigCtx.Done():
		logger.Info("Shutting down control API...")
	case serveErr = <-errCh:
		logger.Errorf("Control API failed: %v", serveErr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Control API shutdown: %v", err)
	}
	wg.Wait()
	if err := launcher.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to stop server: %v", err)
	}
	return serveErr
}

func init() {
	root.RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().StringVar(&listenAddress, "listen", "", "Control API address (default server.address)")
	serveCmd.Flags().BoolVar(&autoStart, "start", false, "Start the server right away")
	serveCmd.Flags().IntVar(&startPort, "port", 0, "Port used with --start (default: saved port)")

	serveCmd.Example = `  handover-launcher serve
  handover-launcher serve --start --port 8600`
}
