package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/handler"
	weathermw "github.com/fakhrymubarak/weather-lookup/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownGrace = 5 * time.Second

// NewRouter mounts /health and the rate limited /weather/{city} route.
func NewRouter(h *handler.WeatherHandler, limiter *weathermw.RateLimiter) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger)

	router.Get("/health", h.HandleHealth)
	router.With(limiter.Middleware).HandleFunc("/weather/{"+handler.CityParam+"}", h.HandleWeather)
	return router
}

// New returns an http.Server on addr with the server.* timeouts from config.
func New(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout"),
		ReadTimeout:       config.GetServerTimeout("read_timeout"),
		WriteTimeout:      config.GetServerTimeout("write_timeout"),
		IdleTimeout:       config.GetServerTimeout("idle_timeout"),
	}
}

// Run listens on srv.Addr and serves until ctx is cancelled.
func Run(ctx context.Context, srv *http.Server) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	logger := config.GetLogger()
	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("Weather API server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down weather API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}
