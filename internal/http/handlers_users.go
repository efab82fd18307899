// Package httpx provides HTTP handlers and utilities for the authsvc API.
// It maps the auth service's typed errors onto wire-level status codes; all
// correctness logic lives in internal/service.
package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
	"github.com/flixbase/authsvc/internal/service"
)

// UserHandlers provides HTTP handlers for account operations.
type UserHandlers struct {
	Svc *service.AuthService
}

// Get handles GET /api/v1/user?email=<email>.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_query",
			Err:     errors.New("email query parameter is required"),
		})
		return
	}

	user, err := h.Svc.FindByEmail(r.Context(), email)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// Register handles POST /api/v1/user/register.
func (h *UserHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	user, err := h.Svc.Register(r.Context(), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, domainauth.OK(user))
}

// Login handles POST /api/v1/user/login.
func (h *UserHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if !DecodeJSON(w, r, &creds) {
		return
	}

	user, err := h.Svc.Login(r.Context(), creds)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, domainauth.OK(user))
}

// Logout handles POST /api/v1/user/logout. The route is wrapped in
// RequireAuth, so the caller email is taken from the request context.
func (h *UserHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	email, ok := CallerEmail(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthorized",
			Err:     errors.New("no authenticated caller"),
		})
		return
	}

	if err := h.Svc.Logout(r.Context(), email); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, domainauth.AuthResult{Success: true})
}

// passwordBody is the DELETE request body: the caller re-supplies their
// current password as a JSON object, {"password": "..."}.
type passwordBody struct {
	Password string `json:"password"`
}

// Delete handles DELETE /api/v1/user/delete. The caller must be authenticated
// and must re-supply their current password.
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	email, ok := CallerEmail(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthorized",
			Err:     errors.New("no authenticated caller"),
		})
		return
	}

	var body passwordBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	if err := h.Svc.Delete(r.Context(), email, body.Password); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, domainauth.AuthResult{Success: true})
}

// MakeAdmin handles POST /api/v1/user/make-admin.
func (h *UserHandlers) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	var in service.PromoteInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	user, err := h.Svc.PromoteToAdmin(r.Context(), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, domainauth.OK(user))
}
