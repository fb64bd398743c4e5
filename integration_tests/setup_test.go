package integrationtest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/fakhrymubarak/weather-lookup/internal/handler"
	"github.com/fakhrymubarak/weather-lookup/internal/middleware"
	"github.com/fakhrymubarak/weather-lookup/internal/repository"
	"github.com/fakhrymubarak/weather-lookup/internal/server"
	"github.com/fakhrymubarak/weather-lookup/internal/service"
)

const testAPIKey = "test_api_key"

// setupIntegrationTestServer serves the full router with a limiter loose enough
// not to interfere with the suite.
func setupIntegrationTestServer() *httptest.Server {
	weatherRepo := repository.NewWeatherRepository()
	weatherService := service.NewWeatherService(weatherRepo)
	limiter := middleware.NewRateLimiter(1000, 1000, 1000, 1000, time.Minute)
	return httptest.NewServer(server.NewRouter(handler.NewWeatherHandler(weatherService), limiter))
}

// mockOWMApi stands in for OpenWeatherMap: London is known, everything else is 404.
func mockOWMApi() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if r.URL.Query().Get("appid") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}
		if q == "London" {
			w.Header().Set("Content-Type", "application/json")
			data, err := os.ReadFile("testdata/openweathermap_london.json")
			if err != nil {
				data = []byte(`{"name":"London","main":{"temp":15.2},"weather":[{"description":"clear sky"}]}`)
			}
			_, _ = w.Write(data)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
}
