// Package server envuelve http.Server con apagado ordenado.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
)

// Config define dirección y tiempos del servidor.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server corre el handler raíz y drena conexiones ante SIGINT/SIGTERM.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// New crea el servidor. Timeouts en cero heredan los defaults de
// net/http (sin límite), igual que el resto del ecosistema.
func New(cfg Config, handler http.Handler) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run sirve hasta recibir SIGINT o SIGTERM.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext es Run con la señal de parada inyectable. Bloquea hasta
// que el listener falle o ctx se cancele; en el segundo caso espera a
// las conexiones en vuelo hasta ShutdownTimeout.
func (s *Server) RunContext(ctx context.Context) error {
	log := logger.With(logger.Component("http.server"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
