package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/engage/internal/api"
	"github.com/hugo-lorenzo-mato/engage/internal/staging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local control API",
	Long: `Start the HTTP API the desktop app drives.

The server exposes automation control (run, stop, status), the saved
configuration, the run history, and a Server-Sent Events stream of
run progress.

Examples:
  # Start with defaults (localhost:7070)
  engage serve

  # Start on a custom port
  engage serve --port 3000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "localhost",
		"Host address to bind to")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 7070,
		"Port to listen on")
}

func runServe(_ *cobra.Command, _ []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notify connected clients when the saved config changes on disk.
	watcher, err := staging.NewWatcher(application.stager, application.bus, application.logger)
	if err != nil {
		application.logger.Warn("config watcher unavailable", "error", err)
	} else {
		if err := watcher.Start(ctx); err != nil {
			application.logger.Warn("config watcher failed to start", "error", err)
		}
		defer watcher.Stop()
	}

	server := api.NewServer(application.manager, application.bus,
		api.WithLogger(application.logger),
		api.WithHistoryReader(application.history),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	addr := fmt.Sprintf("%s:%d", serveHost, servePort)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(gctx, addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Shut down on SIGINT/SIGTERM, stopping any active run first.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-sigCh:
		}
		application.logger.Info("shutting down")
		if _, err := application.manager.Stop(context.Background()); err != nil {
			application.logger.Error("stop on shutdown failed", "error", err)
		}
		cancel()
		return nil
	})

	return g.Wait()
}
