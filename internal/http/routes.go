package httpx

import (
	"net/http"

	"github.com/flixbase/authsvc/internal/service"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Auth *service.AuthService
}

// NewRouter creates and configures the HTTP router.
//
// Logout and delete bind to "the caller's own account" and are therefore
// gated by RequireAuth; every other route takes plain data.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	handlers := &UserHandlers{Svc: services.Auth}
	authed := RequireAuth(services.Auth)

	mux.Handle("GET /api/v1/user", http.HandlerFunc(handlers.Get))
	mux.Handle("POST /api/v1/user/register", http.HandlerFunc(handlers.Register))
	mux.Handle("POST /api/v1/user/login", http.HandlerFunc(handlers.Login))
	mux.Handle("POST /api/v1/user/logout", authed(http.HandlerFunc(handlers.Logout)))
	mux.Handle("DELETE /api/v1/user/delete", authed(http.HandlerFunc(handlers.Delete)))
	mux.Handle("POST /api/v1/user/make-admin", http.HandlerFunc(handlers.MakeAdmin))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}
