package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("cache.expiration", "10m")
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("client.base_url", "http://localhost:8080")
	viper.SetDefault("client.sequence_guard", false)
	viper.SetDefault("client.check_status", true)
	viper.SetDefault("client.timeout", "0s")
	viper.SetDefault("tracing.service_name", "weather-lookup")
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Errorw("Error finding project root", "error", err)
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetOpenWeatherApiUrl() string {
	initConfig()
	return viper.GetString("openweathermap.api_url")
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

// GetServerPort returns server.port, with PORT taking precedence when set.
func GetServerPort() string {
	initConfig()
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return viper.GetString("server.port")
}

// GetCacheExpiration returns how long a weather lookup stays cached. Defaults to 10m.
func GetCacheExpiration() time.Duration {
	initConfig()
	return durationOr("cache.expiration", 10*time.Minute)
}

// GetServerTimeout returns one of the server.*_timeout settings.
func GetServerTimeout(key string) time.Duration {
	initConfig()
	return durationOr("server."+key, 0)
}

func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

func GetTestServerPort() string {
	initConfig()
	return viper.GetString("test.server_port")
}

// GetClientBaseURL is the origin the weather widget sends /weather/<city> requests to.
func GetClientBaseURL() string {
	initConfig()
	return strings.TrimRight(viper.GetString("client.base_url"), "/")
}

func GetClientSequenceGuard() bool {
	initConfig()
	return viper.GetBool("client.sequence_guard")
}

func GetClientCheckStatus() bool {
	initConfig()
	return viper.GetBool("client.check_status")
}

// GetClientTimeout returns the widget request timeout. Zero means wait forever.
func GetClientTimeout() time.Duration {
	initConfig()
	return durationOr("client.timeout", 0)
}

func GetTracingServiceName() string {
	initConfig()
	return viper.GetString("tracing.service_name")
}

// GetTracingZipkinURL returns the span collector endpoint. Empty disables export.
func GetTracingZipkinURL() string {
	initConfig()
	return viper.GetString("tracing.zipkin_url")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

func durationOr(key string, fallback time.Duration) time.Duration {
	durStr := viper.GetString(key)
	if durStr == "" {
		return fallback
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		GetLogger().Warnw("Invalid duration in config", "key", key, "value", durStr, "error", err)
		return fallback
	}
	return dur
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	return durationOr("rate_limiter.cleanup_timeout", 3*time.Minute)
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-city rate limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}
