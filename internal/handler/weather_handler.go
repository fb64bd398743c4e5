package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/model"
	"github.com/fakhrymubarak/weather-lookup/internal/redis"
	"github.com/fakhrymubarak/weather-lookup/internal/repository"
	"github.com/fakhrymubarak/weather-lookup/internal/service"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// CityParam is the route parameter holding the requested city.
const CityParam = "city"

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	// Ping checks the cache backend for /health. Nil reports no cache.
	Ping func(ctx context.Context) error
}

func NewWeatherHandler(svc ...service.WeatherServiceInterface) *WeatherHandler {
	var weatherService service.WeatherServiceInterface
	if len(svc) > 0 && svc[0] != nil {
		weatherService = svc[0]
	} else {
		weatherService = service.NewWeatherService()
	}
	return &WeatherHandler{
		WeatherService: weatherService,
		Ping:           redis.Ping,
	}
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) writeError(w http.ResponseWriter, statusCode int, detail string) {
	h.writeJSONResponse(w, statusCode, model.ErrorResponse(detail, "Error"))
}

// cityFromRequest reads the city from the chi route, falling back to the path
// tail when the handler is mounted without chi. chi matches on RawPath when it
// is set, so only then is the parameter still escaped.
func cityFromRequest(r *http.Request) string {
	city := chi.URLParam(r, CityParam)
	if city == "" {
		city = strings.TrimPrefix(r.URL.Path, "/weather/")
		if city == r.URL.Path {
			return ""
		}
		return city
	}
	if r.URL.RawPath == "" {
		return city
	}
	if unescaped, err := url.PathUnescape(city); err == nil {
		return unescaped
	}
	return city
}

// HandleWeather serves GET /weather/{city}. A 200 carries the bare weather
// object; every other status carries the model.Response envelope.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	city := cityFromRequest(r)
	if strings.TrimSpace(city) == "" {
		h.writeError(w, http.StatusBadRequest, "Missing city in path")
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	weather, err := h.WeatherService.GetWeather(ctx, city)
	if err != nil {
		var notFound *repository.LocationNotFoundError
		switch {
		case errors.Is(err, service.ErrEmptyCity):
			h.writeError(w, http.StatusBadRequest, "Missing city in path")
		case errors.As(err, &notFound):
			h.writeError(w, http.StatusNotFound, "City not found")
		default:
			config.GetLogger().Errorw("Weather lookup failed", "city", city, "error", err)
			h.writeError(w, http.StatusInternalServerError, "Failed to fetch weather data")
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, weather)
}

// HandleHealth reports ok, degraded (cache unreachable) or no_cache.
func (h *WeatherHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.Ping == nil {
		status = "no_cache"
	} else if err := h.Ping(r.Context()); err != nil {
		config.GetLogger().Warnw("Cache ping failed", "error", err)
		status = "degraded"
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": status})
}
