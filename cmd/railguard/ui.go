package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/railguard/railguard/internal/db"
	"github.com/railguard/railguard/internal/logging"
	"github.com/railguard/railguard/internal/web"
)

func uiCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Serve the call history web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			app := fx.New(
				fx.NopLogger,
				fx.Supply(db.NewStore(database)),
				fx.Provide(
					web.NewServer,
					func(srv *web.Server) *http.Server {
						return &http.Server{
							Addr:              addr,
							Handler:           srv.Routes(),
							ReadHeaderTimeout: 5 * time.Second,
						}
					},
				),
				fx.Invoke(registerHTTPServer),
			)

			if err := app.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start ui: %w", err)
			}
			<-app.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8823", "listen address")

	return cmd
}

func registerHTTPServer(lc fx.Lifecycle, srv *http.Server) {
	log := logging.Component("web")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			log.Info().Str("addr", ln.Addr().String()).Msg("ui listening")
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("ui server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
