package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/productlister/lister/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local JSON API",
		Long: `Starts the Lister API on a loopback address.

The API drives one editing session, the listing workflow, the product
catalog and settings, and serves stored images under /artifacts/.`,
		Example: `  # Start server on the default address (127.0.0.1:8080)
  lister serve

  # Start server on a custom address
  lister serve --addr 127.0.0.1:3000`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			if addr == "" {
				addr = a.cfg.Addr
			}

			handler := handlers.New(a.editor(), a.listings(), a.catalog, a.artifacts)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Lister API available", "addr", addr, "url", "http://"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default $LISTER_ADDR or 127.0.0.1:8080)")

	return cmd
}
