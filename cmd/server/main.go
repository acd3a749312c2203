package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/recipe-content/pkg/recipecontent/api"
	"github.com/tendant/recipe-content/pkg/recipecontent/auth"
	"github.com/tendant/recipe-content/pkg/recipecontent/config"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	verifier, err := serverConfig.BuildVerifier()
	if err != nil {
		slog.Error("Failed to build token verifier", "err", err)
		os.Exit(1)
	}
	if verifier == nil {
		slog.Warn("AUTH_MODE is none; every request is anonymous and image routes will reject it")
	}

	logger := slog.Default()
	svc, cleanup, err := serverConfig.BuildService(context.Background(), auth.NewContextProvider(), logger)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.Info("Recipe content server configured",
		"environment", serverConfig.Environment,
		"storage_backend", serverConfig.DefaultStorageBackend,
		"auth_mode", serverConfig.AuthMode,
		"audit", serverConfig.AuditDatabaseURL != "")

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Mount("/api/v1", api.Routes(api.RouterConfig{
		Service:        svc,
		Verifier:       verifier,
		AllowedOrigins: serverConfig.CORSAllowedOrigins,
		Logger:         logger,
	}))

	server.Run()
}
