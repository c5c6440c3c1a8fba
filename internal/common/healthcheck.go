package common

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/khanghh/naversign/params"
)

type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

func NewHealthCheckHandler(checker ReadinessChecker) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), params.ReadinessCheckTimeout)
		defer cancel()
		if err := checker.Ready(ctx); err != nil {
			slog.Warn("Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// StartHealthCheckServer serves /livez and /readyz on addr until ctx is done.
func StartHealthCheckServer(ctx context.Context, addr string, checker ReadinessChecker) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewHealthCheckHandler(checker),
		ReadHeaderTimeout: params.ServerReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
