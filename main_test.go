package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/handler"
	"github.com/fakhrymubarak/weather-lookup/internal/middleware"
	"github.com/fakhrymubarak/weather-lookup/internal/redis"
	"github.com/fakhrymubarak/weather-lookup/internal/repository"
	"github.com/fakhrymubarak/weather-lookup/internal/server"
	"github.com/fakhrymubarak/weather-lookup/internal/service"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentVariables(t *testing.T) {
	port := config.GetServerPort()
	if port != "8080" {
		t.Errorf("Expected default port 8080, got %s", port)
	}
}

func TestServerWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	viper.Set("redis.addr", mr.Addr())
	redis.ResetClientForTest()
	t.Cleanup(redis.ResetClientForTest)

	weatherHandler := handler.NewWeatherHandler(service.NewWeatherService(repository.NewWeatherRepository()))
	srv := httptest.NewServer(server.NewRouter(weatherHandler, middleware.NewRateLimiterFromConfig()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/health", nil)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeAndShutdown(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	if err := mr.StartAddr("127.0.0.1" + config.GetTestRedisMockPort()); err != nil {
		t.Skipf("test redis port unavailable: %v", err)
	}
	defer mr.Close()
	viper.Set("redis.addr", mr.Addr())
	redis.ResetClientForTest()
	t.Cleanup(redis.ResetClientForTest)

	ln, err := net.Listen("tcp", "127.0.0.1"+config.GetTestServerPort())
	if err != nil {
		t.Skipf("test server port unavailable: %v", err)
	}

	weatherHandler := handler.NewWeatherHandler(service.NewWeatherService(repository.NewWeatherRepository()))
	srv := server.New(ln.Addr().String(), server.NewRouter(weatherHandler, middleware.NewRateLimiterFromConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
