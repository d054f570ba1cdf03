package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parisxmas/juridoc/internal/config"
	"github.com/parisxmas/juridoc/internal/gelf"
	"github.com/parisxmas/juridoc/internal/handler"
	"github.com/parisxmas/juridoc/internal/logging"
	"github.com/parisxmas/juridoc/internal/repository"
	"github.com/parisxmas/juridoc/internal/router"
	"github.com/parisxmas/juridoc/internal/service"
)

var (
	// set with -ldflags "-X main.version=..."
	version = "dev"

	configPath string

	colorGreen = color.New(color.FgGreen, color.Bold)
	colorCyan  = color.New(color.FgCyan)
	colorRed   = color.New(color.FgRed, color.Bold)
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "juridoc",
		Short:         "Intake service for labour-case client data and documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.AddCommand(serveCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, os.Stderr)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "juridoc", version)
		},
	}
}

// newLogger builds the process logger, teeing to GELF when an address is set.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	out := stderr
	var closer io.Closer
	if cfg.Log.GelfAddr != "" {
		gw, err := gelf.New(cfg.Log.GelfAddr, "juridoc")
		if err != nil {
			fmt.Fprintf(stderr, "Warning: GELF init failed: %v\n", err)
		} else {
			out = io.MultiWriter(stderr, gw)
			closer = gw
		}
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	return log, closer, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (repository.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		s3 := cfg.Storage.S3
		return repository.NewMinioBlobStore(ctx, repository.S3Config{
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
		})
	default:
		if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		return repository.NewDiskBlobStore(cfg.Storage.Dir), nil
	}
}

// newHandler wires stores, services and handlers into the router.
func newHandler(cfg *config.Config, blobs repository.BlobStore, log *slog.Logger) http.Handler {
	subRepo := repository.NewSubmissionRepo()

	attSvc := service.NewAttachmentService(blobs, service.AttachmentConfig{MaxFileBytes: cfg.Storage.MaxFileBytes}, log)
	subSvc := service.NewSubmissionService(subRepo, attSvc, log)

	subH := handler.NewSubmissionHandler(subSvc, attSvc, log, cfg.HTTP.MaxRequestBytes)
	attH := handler.NewAttachmentHandler(attSvc, log)
	healthH := handler.NewHealthHandler(subSvc, appVersion(cfg))

	return router.New(log, cfg.HTTP.CORSOrigins, cfg.HTTP.TrustProxy, subH, attH, healthH)
}

func appVersion(cfg *config.Config) string {
	if version != "dev" {
		return version
	}
	return cfg.App.Version
}

func serve(ctx context.Context, cfg *config.Config, stderr io.Writer) error {
	log, closer, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("storage ready", "backend", cfg.Storage.Backend, "dir", cfg.Storage.Dir, "max_file_bytes", cfg.Storage.MaxFileBytes)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newHandler(cfg, blobs, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	base := "http://localhost" + cfg.HTTP.Addr
	colorGreen.Fprintf(stderr, "Servidor rodando em %s\n", base)
	colorCyan.Fprintf(stderr, "Documentação da API: %s/api-docs\n", base)
	log.Info("server started", "addr", cfg.HTTP.Addr, "version", appVersion(cfg))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
