package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/stagehand/internal/cli"
	"github.com/aretw0/stagehand/internal/demo"
	"github.com/aretw0/stagehand/pkg/adapters/botapi"
	httpAdapter "github.com/aretw0/stagehand/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Bot API webhook",
	Long: `Starts the webhook server. Updates posted to /updates are routed to the
demo scenes and answered through the Bot API using the token from
STAGEHAND_BOT_TOKEN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := os.Getenv("STAGEHAND_BOT_TOKEN")
		if token == "" {
			return errors.New("STAGEHAND_BOT_TOKEN is not set")
		}
		apiURL, _ := cmd.Flags().GetString("api-url")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		transport, err := botapi.New(token, botapi.WithBaseURL(apiURL))
		if err != nil {
			return fmt.Errorf("failed to reach the Bot API: %w", err)
		}
		logger.Info("Bot API ready", "username", transport.Username())

		app, err := cli.NewApp(ctx, cfg, transport, logger, demo.Scenes()...)
		if err != nil {
			return err
		}
		if app.Stores.Sweeper != nil {
			go cli.RunSweeper(ctx, app.Stores.Sweeper, sweepInterval, logger)
		}

		handler := httpAdapter.NewHandler(app.Router,
			httpAdapter.WithDecoder(botapi.DecodeUpdate),
			httpAdapter.WithSecretToken(cfg.WebhookSecret),
			httpAdapter.WithMetrics(app.Registry),
			httpAdapter.WithScenes(app.Router),
			httpAdapter.WithLogger(logger),
		)
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Webhook server listening", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			_ = app.Shutdown(context.Background())
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("Shutting down", "signal", ctx.Signal())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			_ = srv.Close()
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete", "err", err)
		}
		logger.Info("Webhook server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("api-url", botapi.DefaultBaseURL, "Bot API base URL")
}
