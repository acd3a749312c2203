// Package api serves recipe image storage and credential checks over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/tendant/recipe-content/pkg/recipecontent"
	"github.com/tendant/recipe-content/pkg/recipecontent/auth"
)

// RouterConfig wires the API's collaborators
type RouterConfig struct {
	Service recipecontent.Service
	// Verifier resolves bearer tokens; nil leaves every request anonymous
	Verifier       auth.Verifier
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Routes returns the versioned API router, meant to be mounted at /api/v1
func Routes(cfg RouterConfig) chi.Router {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(auth.Middleware(cfg.Verifier))

	r.Mount("/recipes", NewImagesHandler(cfg.Service).Routes())
	r.Mount("/credentials", NewCredentialsHandler().Routes())
	return r
}
