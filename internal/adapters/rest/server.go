package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"listam-parser-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server - статус-сервер процесса: здоровье и ход текущего запуска
type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

func NewServer(listenPort string, handlers *StatusHandlers, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + listenPort,
			Handler:           NewRouter(handlers, baseLogger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: baseLogger,
	}
}

// NewRouter собирает маршруты; вынесен отдельно для тестов
func NewRouter(handlers *StatusHandlers, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.HandleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", handlers.HandleStats)
	})

	return r
}

// Start запускает HTTP-сервер
func (s *Server) Start() error {
	s.logger.Info("Starting status server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping status server...", nil)
	return s.httpServer.Shutdown(ctx)
}
