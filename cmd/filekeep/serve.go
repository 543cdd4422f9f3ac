package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/config"
	filekeephttp "github.com/sagarc03/filekeep/http"
	"github.com/sagarc03/filekeep/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the filekeep HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default: 5710, env: FILEKEEP_SERVER_PORT)")
	serveCmd.Flags().String("auth-mode", "", "caller identification: signature or header (env: FILEKEEP_AUTH_MODE)")
	serveCmd.Flags().Bool("auto-migrate", true, "create the files table if missing")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, closeDB, err := openRegistry(ctx, cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeDB()

	writeVerifier, err := newWriteVerifier(cfg)
	if err != nil {
		return err
	}

	var readVerifier filekeephttp.RequestVerifier
	if cfg.Auth.Read == "private" {
		readVerifier = writeVerifier
	}

	handler, err := filekeephttp.NewHandler(&filekeephttp.HandlerConfig{
		ReadVerifier:  readVerifier,
		WriteVerifier: writeVerifier,
		Clock:         filekeep.NewMonotonicClock(),
		CORS:          cfg.CORS,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		Logger:        slog.Default(),
	}, registry)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "database", cfg.Database.Type, "auth", cfg.Auth.Mode)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func newWriteVerifier(cfg *config.Config) (filekeephttp.RequestVerifier, error) {
	if cfg.Auth.Mode == "header" {
		slog.Warn("trusting caller header; only run behind an authenticating proxy", "header", cfg.Auth.Header)
		return filekeephttp.HeaderVerifier{Header: cfg.Auth.Header}, nil
	}

	secrets, err := keybackend.NewSecretStore(cfg.Auth.Keys)
	if err != nil {
		return nil, fmt.Errorf("load access keys: %w", err)
	}

	return filekeep.NewSignatureVerifier(cfg.Auth.AWS, secrets), nil
}
