package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/api"
	"github.com/student-bot/backend/pkg/logger"
)

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			logger.Info("Starting student query API server")

			rt, err := bootstrap(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			app, stop := api.NewServer(cfg, api.Deps{
				Engine:  rt.engine,
				History: rt.db,
				Ready:   rt.db.Ping,
			})
			defer stop()

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			logger.Info("Server starting", zap.String("address", addr))

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Listen(addr)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-quit:
			}

			logger.Info("Server shutting down gracefully...")
			if err := app.Shutdown(); err != nil {
				logger.Error("Server shutdown failed", zap.Error(err))
			}
			logger.Info("Server stopped")
			return nil
		},
	}
}
