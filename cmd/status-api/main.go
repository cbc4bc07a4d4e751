package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"broker-scout/common"
	"broker-scout/internal/logger"
	"broker-scout/internal/store"
)

type server struct {
	store    store.StatusStore
	log      logger.Logger
	requests *prometheus.CounterVec
	metrics  http.Handler
}

func newServer(statusStore store.StatusStore, log logger.Logger, reg *prometheus.Registry) *server {
	factory := promauto.With(reg)
	factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "broker_scout",
		Subsystem: "status_api",
		Name:      "up",
		Help:      "Set to 1 while the status API runs.",
	}).Set(1)
	return &server{
		store: statusStore,
		log:   log,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "broker_scout",
			Subsystem: "status_api",
			Name:      "requests_total",
			Help:      "Status lookups by result code.",
		}, []string{"code"}),
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs/", s.handleRunStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// apiConfig is the status API's environment.
type apiConfig struct {
	RedisAddr string
	Addr      string
	TTL       time.Duration
}

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := apiConfig{
		RedisAddr: common.GetEnv("REDIS_ADDR", "localhost:6379"),
		Addr:      common.GetEnv("API_ADDR", ":8080"),
		TTL:       common.ParseDuration(common.GetEnv("STATUS_TTL", ""), 24*time.Hour),
	}

	log, err := logger.New(logger.Config{Level: common.GetEnv("LOG_LEVEL", "info")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("status api stopped", logger.Err(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(ctx context.Context, cfg apiConfig, log logger.Logger) error {
	statusStore := store.NewRedisStatusStore(cfg.RedisAddr, store.DefaultPrefix, cfg.TTL)
	defer func() {
		if err := statusStore.Close(); err != nil {
			log.Warn("failed to close status store", logger.Err(err))
		}
	}()

	srv := newServer(statusStore, log, prometheus.NewRegistry())
	return serve(ctx, cfg.Addr, srv.routes(), log)
}

// serve blocks until the listener fails or ctx is cancelled, then shuts down.
func serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	httpServer := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status api listening", logger.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// handleRunStatus returns the last recorded status for a place.
//
// Method: GET
// Path:   /runs/{place}
// Example:
//
//	curl "http://localhost:8080/runs/oregon"
func (s *server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.fail(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	place := strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	if strings.TrimSpace(place) == "" {
		s.fail(w, "missing place", http.StatusBadRequest)
		return
	}

	status, ok, err := s.store.GetStatus(r.Context(), place)
	if err != nil {
		s.log.Error("status lookup failed", logger.String("place", place), logger.Err(err))
		s.fail(w, "failed to load status", http.StatusBadGateway)
		return
	}
	if !ok {
		s.fail(w, "not found", http.StatusNotFound)
		return
	}

	s.requests.WithLabelValues("200").Inc()
	writeJSON(w, status, http.StatusOK)
}

// handleMetrics exposes the API registry in Prometheus format.
//
// Method: GET
// Path:   /metrics
func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

func (s *server) fail(w http.ResponseWriter, msg string, code int) {
	s.requests.WithLabelValues(fmt.Sprint(code)).Inc()
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
