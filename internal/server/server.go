package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kabilan942/Career-Compass-AI/internal/config"
	"github.com/kabilan942/Career-Compass-AI/internal/metrics"
)

type Server struct {
	cfg     config.ServerConfig
	httpSrv *http.Server
	logger  *zap.Logger
}

// New wires the router. ctx bounds background work such as the rate
// limiter sweeper.
func New(ctx context.Context, cfg config.ServerConfig, sessions Sessions, collector *metrics.Collector, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))
	h := &handlers{sessions: sessions, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/sessions", h.createSession).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/turns", h.postTurn).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/history", h.getHistory).Methods(http.MethodGet)
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if collector != nil {
		router.Use(Metrics(collector))
	}

	middlewares := []Middleware{Recovery(logger), RequestID(), RequestLogger(logger)}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimiter(ctx, cfg.RateLimit, cfg.RateBurst))
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpSrv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      otelhttp.NewHandler(Chain(router, middlewares...), "counsel-http"),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.cfg.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gracefully")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}
