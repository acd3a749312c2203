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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cobra"
	"github.com/tendant/recipe-content/pkg/recipecontent/api"
	"github.com/tendant/recipe-content/pkg/recipecontent/auth"
	"github.com/tendant/recipe-content/pkg/recipecontent/config"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recipe content HTTP API",
		Long:  `Run the recipe content HTTP API on --port (default: $PORT or 8080) until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []config.Option{config.WithEnv()}
			if port != "" {
				opts = append(opts, config.WithPort(port))
			}
			cfg, err := config.Load(opts...)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler, cleanup, err := newHandler(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			return serve(ctx, cmd, cfg.Port, handler)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on")

	return cmd
}

func newHandler(ctx context.Context, cmd *cobra.Command, cfg *config.ServerConfig) (http.Handler, func(), error) {
	logger := newLogger(cmd)

	verifier, err := cfg.BuildVerifier()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build token verifier: %w", err)
	}

	svc, cleanup, err := cfg.BuildService(ctx, auth.NewContextProvider(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build service: %w", err)
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
	r.Mount("/api/v1", api.Routes(api.RouterConfig{
		Service:        svc,
		Verifier:       verifier,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	}))

	return r, cleanup, nil
}

// serve runs the server until ctx is done, then shuts it down gracefully
func serve(ctx context.Context, cmd *cobra.Command, port string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Recipe content server listening on :%s\n", port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
