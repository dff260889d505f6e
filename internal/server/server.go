package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crmlens/crmlens/internal/config"
	"github.com/crmlens/crmlens/internal/executor"
)

type Server struct {
	cfg  *config.Config
	http *http.Server
	exec executor.Executor // held for graceful close
}

func New(cfg *config.Config) *Server {
	s := &Server{cfg: cfg}

	router, exec := s.setupRoutes()
	s.exec = exec

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("addr", s.http.Addr).Str("environment", s.cfg.Environment).Msg("server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.exec != nil {
			s.exec.Close()
			log.Info().Msg("database pool closed")
		}

		return err
	case err := <-errCh:
		return err
	}
}
