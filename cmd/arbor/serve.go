package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Serves workflow validation, execution, audit lookups, live progress and Prometheus metrics over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.Config.Server.Addr
			}

			handler, err := httpAdapter.NewHandler(cmd.Context(), app.Engine,
				httpAdapter.WithLoader(app.Loader),
				httpAdapter.WithAuditStore(app.Store),
				httpAdapter.WithTracker(app.Tracker),
				httpAdapter.WithGatherer(app.Registry),
				httpAdapter.WithLogger(app.Logger),
			)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				app.Logger.Info("Arbor server listening", "address", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-shutdown:
				app.Logger.Info("shutdown started", "signal", sig.String())

				// In-flight runs get the engine timeout, capped so shutdown stays bounded.
				grace := app.Config.Timeout
				if grace <= 0 || grace > 30*time.Second {
					grace = 30 * time.Second
				}
				ctx, cancel := context.WithTimeout(context.Background(), grace)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					app.Logger.Warn("graceful shutdown did not complete", "err", err)
					return srv.Close()
				}
				app.Logger.Info("Arbor server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default: server.addr from config)")
	return cmd
}
