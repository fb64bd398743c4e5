package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/handler"
	"github.com/fakhrymubarak/weather-lookup/internal/middleware"
	"github.com/fakhrymubarak/weather-lookup/internal/redis"
	"github.com/fakhrymubarak/weather-lookup/internal/repository"
	"github.com/fakhrymubarak/weather-lookup/internal/server"
	"github.com/fakhrymubarak/weather-lookup/internal/service"
	"github.com/fakhrymubarak/weather-lookup/internal/telemetry"
)

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupFromConfig()
	if err != nil {
		logger.Fatalw("Failed to set up tracing", "error", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if err := redis.Ping(ctx); err != nil {
		logger.Warnw("Redis unreachable, lookups will not be cached", "addr", config.GetRedisAddr(), "error", err)
	}

	weatherService := service.NewWeatherService(repository.NewWeatherRepository())
	weatherHandler := handler.NewWeatherHandler(weatherService)

	limiter := middleware.NewRateLimiterFromConfig()
	go limiter.Run(ctx, config.GetRateLimiterCleanupTimeout()/3)

	srv := server.New(":"+config.GetServerPort(), server.NewRouter(weatherHandler, limiter))
	if err := server.Run(ctx, srv); err != nil {
		logger.Fatalw("Weather API server failed", "error", err)
	}
}
