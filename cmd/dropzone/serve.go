package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dropzone/internal/app"
	"github.com/vango-dev/dropzone/internal/config"
	"github.com/vango-dev/dropzone/internal/errors"
	"github.com/vango-dev/dropzone/pkg/upload"
)

type serveOptions struct {
	configPath string
	dir        string
	port       int
	host       string
	storage    string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the upload server",
		Long: `Start the HTTP server with the drop zone demo page, the upload
endpoint, the live selection channel and the preset API.

Configuration is read from dropzone.yaml, found by walking up from
the working directory, unless --config is given.

Examples:
  dropzone serve
  dropzone serve --port=9000
  dropzone serve --config=deploy/dropzone.yaml --storage=s3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to dropzone.yaml")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "Directory to search for dropzone.yaml")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from dropzone.yaml)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from dropzone.yaml)")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "Storage driver: disk, s3 or gcs")

	return cmd
}

// loadServeConfig loads the configuration and applies flag overrides.
func loadServeConfig(opts serveOptions) (*config.Config, error) {
	if opts.port < 0 || opts.port > 65535 {
		return nil, errors.New(errors.CodeCLIArgs).
			WithDetail(fmt.Sprintf("--port %d is out of range", opts.port)).
			WithSuggestion("Use a port between 1 and 65535.")
	}

	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromDir(opts.dir)
	}
	if err != nil {
		return nil, err
	}

	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.storage != "" {
		cfg.Storage.Driver = opts.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cfg.Log.NewLogger(os.Stderr)

	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Upload.CleanupInterval > 0 {
		go upload.RunCleanup(ctx, store, cfg.Upload.CleanupInterval, cfg.Upload.TempExpiry, logger)
	} else {
		warn("Cleanup disabled; expired uploads are only removed on claim")
	}

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return errors.New(errors.CodeServerListen).
			WithDetail("address " + cfg.Address()).
			Wrap(err)
	}

	srv := &http.Server{
		Handler:           app.New(cfg, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("Listening on %s", cfg.URL())
	info("storage: %s", cfg.Storage.Driver)
	if cfg.Metrics.Enabled {
		info("metrics: %s%s", cfg.URL(), cfg.Metrics.Path)
	}
	if path := cfg.Path(); path != "" {
		info("config:  %s", path)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New(errors.CodeServerListen).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("\n  Shutting down...")
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New(errors.CodeServerShutdown).Wrap(err)
	}
	success("Server stopped")
	return nil
}
