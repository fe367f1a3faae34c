package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/server"
	"github.com/spetersoncode/byline/internal/tasks"
	"github.com/spf13/cobra"
)

// Serve command flags
var (
	servePort      int
	serveHost      string
	serveNoBrowser bool
	servePrune     time.Duration
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 18080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host address to bind to")
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "Don't auto-open browser")
	serveCmd.Flags().DurationVar(&servePrune, "prune-every", 0, "Prune entries past retention_days at this interval (0 disables)")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI server",
	Long: `Start an HTTP server that provides a web view and JSON API for byline.

The web UI shows every feed's entries with their bylines. The JSON API lives
under /api (feeds, entries, recent, health).

The server runs on localhost by default and auto-opens your browser.

Examples:
  byline serve                      # Start on default port 18080
  byline serve --port 8080          # Start on custom port
  byline serve --no-browser         # Don't auto-open browser
  byline serve --host 0.0.0.0       # Bind to all interfaces
  byline serve --prune-every 24h    # Prune old entries daily while serving`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	byline, err := newByline()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:            servePort,
		Host:            serveHost,
		DB:              database.DB,
		Byline:          byline,
		AutoOpenBrowser: !serveNoBrowser,
		Logger:          logger,
	})
	if err != nil {
		return werrors.WrapInternal(err, "failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if servePrune > 0 {
		retention := time.Duration(GetRetentionDays()) * 24 * time.Hour
		pruner := tasks.NewEntryPruner(database.DB, logger)
		go pruner.RunDaemon(ctx, servePrune, retention, nil)
	}

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	OutputLine("Byline server starting at http://%s", srv.Address())
	if !serveNoBrowser {
		OutputLine("Opening browser...")
	}
	OutputLine("Press Ctrl+C to stop")

	// Wait for shutdown signal or error
	select {
	case err := <-errChan:
		if err != nil {
			return werrors.WrapInternal(err, "server error")
		}
	case <-stop:
		OutputLine("\nShutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return werrors.WrapInternal(err, "shutdown error")
		}
	}

	OutputLine("Server stopped")
	return nil
}
