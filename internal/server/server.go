// Package server assembles the HTTP surface and runs it with graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/config"
	"github.com/finsightlab/finsight/internal/handler"
	"github.com/finsightlab/finsight/internal/handler/chat"
	"github.com/finsightlab/finsight/internal/handler/runs"
	"github.com/finsightlab/finsight/internal/svc"
)

// NewRouter builds the chi router over the service context. Exposed
// separately from Run so tests can drive the full HTTP surface in-process.
func NewRouter(svcCtx *svc.ServiceContext) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chat.TurnHandler(svcCtx))
		r.Get("/conversations/{id}", chat.GetConversationHandler(svcCtx))
		r.Get("/runs/{id}", runs.GetRunHandler(svcCtx))
	})

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. In-flight requests get a short drain window on
// shutdown.
func Run(ctx context.Context, c config.Config, svcCtx *svc.ServiceContext) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", c.Host, c.Port),
		Handler: NewRouter(svcCtx),
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
