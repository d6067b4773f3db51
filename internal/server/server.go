// Package server wires the router and owns the HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/handlers"
	"github.com/nversa/docchat/internal/middleware"
	"github.com/nversa/docchat/pkg/logging"
)

type Server struct {
	http   *http.Server
	logger *logging.Logger
}

func New(listenAddr string, h *handlers.Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Trace)
	r.Use(middleware.RequestMetrics)
	r.Use(middleware.DefaultIPRateLimiter().Middleware)

	r.Get("/", h.Health)
	r.Post("/upload/pdf", h.Upload)
	r.Get("/uploaded-pdfs", h.ListFiles)
	r.Delete("/delete-pdf/{fileName}", h.DeleteFile)
	r.Post("/chat", h.Chat)
	r.Get("/status/{id}", h.JobStatus)
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         listenAddr,
			Handler:      r,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logging.NewLogger("server"),
	}
}

// ListenAndServe blocks until the server stops. A graceful Shutdown does
// not surface as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by ShutdownContextTimeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	s.http.SetKeepAlivesEnabled(false)
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server drained")
	return nil
}
