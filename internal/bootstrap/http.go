package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/flixbase/authsvc/config"
	httpx "github.com/flixbase/authsvc/internal/http"
	"github.com/flixbase/authsvc/internal/service"
)

const shutdownTimeout = 10 * time.Second

// RunHTTPServer starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func RunHTTPServer(cfg config.HTTPConfig, auth *service.AuthService, logger *slog.Logger) error {
	handler := buildHTTPHandler(auth, logger)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildHTTPHandler(auth *service.AuthService, logger *slog.Logger) http.Handler {
	router := httpx.NewRouter(httpx.RouterServices{Auth: auth})

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)
	return h
}
