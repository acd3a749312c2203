package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/recipe-content/pkg/recipecontent"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, recipecontent.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, recipecontent.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, recipecontent.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, recipecontent.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, recipecontent.ErrObjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its mapped status. Precondition messages are
// passed through verbatim; unexpected failures are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = "Image not found"
	case http.StatusInternalServerError:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "Internal server error"
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
