package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/model"
	"github.com/fakhrymubarak/weather-lookup/internal/redis"
	redisv9 "github.com/redis/go-redis/v9"
)

var (
	ErrAPIKeyMissing = errors.New("API key missing")
	ErrExternalAPI   = errors.New("external API error")
)

// LocationNotFoundError is returned when the provider does not know the requested city.
type LocationNotFoundError struct {
	City    string
	Message string
}

func (e *LocationNotFoundError) Error() string {
	if e.Message == "" {
		return "city not found"
	}
	return e.Message
}

// Cache is the subset of the Redis client the repository needs.
type Cache interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	GetWeather(ctx context.Context, city string) (*model.WeatherResponse, error)
}

type weatherRepository struct {
	redisClient Cache
	httpClient  *http.Client
}

// NewWeatherRepository creates a repository backed by the shared Redis client.
// An optional http.Client replaces http.DefaultClient for provider calls.
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		redisClient: redis.GetClient(),
		httpClient:  client,
	}
}

// NewWeatherRepositoryWithCache creates a repository on an explicit cache.
func NewWeatherRepositoryWithCache(cache Cache, httpClient *http.Client) WeatherRepository {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &weatherRepository{
		redisClient: cache,
		httpClient:  httpClient,
	}
}

func cacheKey(city string) string {
	return "weather:" + strings.ToLower(city)
}

// GetWeather returns the cached reading for city or fetches and caches a fresh one.
func (r *weatherRepository) GetWeather(ctx context.Context, city string) (*model.WeatherResponse, error) {
	if cached, err := r.getFromCache(ctx, city); err == nil {
		return cached, nil
	}

	weather, err := r.fetchFromExternalAPI(ctx, city)
	if err != nil {
		return nil, err
	}

	r.cacheWeather(ctx, city, weather)
	return weather, nil
}

func (r *weatherRepository) getFromCache(ctx context.Context, city string) (*model.WeatherResponse, error) {
	val, err := r.redisClient.Get(ctx, cacheKey(city)).Result()
	if err != nil {
		return nil, err
	}

	var weather model.WeatherResponse
	if err := json.Unmarshal([]byte(val), &weather); err != nil {
		config.GetLogger().Warnw("Discarding unreadable cache entry", "city", city, "error", err)
		return nil, err
	}

	weather.Cached = true
	return &weather, nil
}

func (r *weatherRepository) fetchFromExternalAPI(ctx context.Context, city string) (*model.WeatherResponse, error) {
	apiKey := config.GetOpenWeatherMapAPIKey()
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if strings.TrimSpace(city) == "" {
		return nil, &LocationNotFoundError{City: city}
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", apiKey)
	params.Set("units", "metric")
	endpoint := config.GetOpenWeatherApiUrl() + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr model.OpenWeatherMapError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if resp.StatusCode == http.StatusNotFound {
			return nil, &LocationNotFoundError{City: city, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("%w: status %d %s", ErrExternalAPI, resp.StatusCode, apiErr.Message)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decoding provider reply: %v", ErrExternalAPI, err)
	}

	return data.ToWeather(), nil
}

func (r *weatherRepository) cacheWeather(ctx context.Context, city string, weather *model.WeatherResponse) {
	b, err := json.Marshal(weather)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, cacheKey(city), b, config.GetCacheExpiration()).Err(); err != nil {
		config.GetLogger().Warnw("Failed to cache weather", "city", city, "error", err)
	}
}
