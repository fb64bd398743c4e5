package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fakhrymubarak/weather-lookup/internal/model"
	"github.com/fakhrymubarak/weather-lookup/internal/repository"
	"github.com/fakhrymubarak/weather-lookup/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrWeatherService = errors.New("weather service error")
	ErrEmptyCity      = errors.New("city is required")
)

// WeatherServiceInterface is what the HTTP layer depends on.
type WeatherServiceInterface interface {
	GetWeather(ctx context.Context, city string) (*model.WeatherResponse, error)
}

type WeatherService struct {
	WeatherRepo repository.WeatherRepository
}

// NewWeatherService wires a service to repo, or to the Redis-backed repository when repo is omitted or nil.
func NewWeatherService(repo ...repository.WeatherRepository) *WeatherService {
	var r repository.WeatherRepository
	if len(repo) > 0 && repo[0] != nil {
		r = repo[0]
	} else {
		r = repository.NewWeatherRepository()
	}
	return &WeatherService{WeatherRepo: r}
}

// GetWeather looks up the current reading for city. Repository failures are
// wrapped so that both ErrWeatherService and the original cause match errors.Is/As.
func (s *WeatherService) GetWeather(ctx context.Context, city string) (*model.WeatherResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	city = strings.TrimSpace(city)

	ctx, span := telemetry.Tracer("weather-service").Start(ctx, "GET-WEATHER")
	defer span.End()
	span.SetAttributes(attribute.String("weather.city", city))

	if city == "" {
		span.SetStatus(codes.Error, ErrEmptyCity.Error())
		return nil, ErrEmptyCity
	}

	weather, err := s.WeatherRepo.GetWeather(ctx, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrWeatherService, err)
	}
	span.SetAttributes(attribute.Bool("weather.cached", weather.Cached))
	return weather, nil
}
