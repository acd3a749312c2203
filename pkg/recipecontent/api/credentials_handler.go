package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/recipe-content/pkg/recipecontent/validation"
)

// CredentialsHandler lets clients pre-check sign-up and sign-in forms
type CredentialsHandler struct{}

func NewCredentialsHandler() *CredentialsHandler {
	return &CredentialsHandler{}
}

// Routes returns the router for credential endpoints
func (h *CredentialsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/check", h.Check)
	return r
}

// CheckCredentialsRequest carries the raw form values
type CheckCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CheckCredentialsResponse reports the outcome of each check. Email is the
// sanitized address and is omitted when none was given.
type CheckCredentialsResponse struct {
	EmailValid    bool   `json:"email_valid"`
	PasswordValid bool   `json:"password_valid"`
	Email         string `json:"email,omitempty"`
}

// Check validates the email and password without signing anyone in
func (h *CredentialsHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	resp := CheckCredentialsResponse{
		EmailValid:    validation.ValidateEmail(req.Email),
		PasswordValid: validation.ValidatePassword(req.Password),
	}
	if email, err := validation.SanitizeEmail(req.Email); err == nil {
		resp.Email = email
	}

	render.JSON(w, r, resp)
}
