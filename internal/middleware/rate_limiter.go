package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/model"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// visitor holds a limiter and the last time its key was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-IP limit and a per-IP-per-city limit on the weather route.
type RateLimiter struct {
	globalPerMinute float64
	globalBurst     int
	paramPerMinute  float64
	paramBurst      int
	staleAfter      time.Duration

	// Param extracts the per-param bucket key. Defaults to the lowercased city route parameter.
	Param func(r *http.Request) string

	mu     sync.Mutex
	global map[string]*visitor            // ip -> visitor
	param  map[string]map[string]*visitor // ip -> city -> visitor
	now    func() time.Time
}

// NewRateLimiter builds a limiter; rates are requests per minute.
func NewRateLimiter(globalPerMinute float64, globalBurst int, paramPerMinute float64, paramBurst int, staleAfter time.Duration) *RateLimiter {
	return &RateLimiter{
		globalPerMinute: globalPerMinute,
		globalBurst:     globalBurst,
		paramPerMinute:  paramPerMinute,
		paramBurst:      paramBurst,
		staleAfter:      staleAfter,
		Param:           cityParam,
		global:          make(map[string]*visitor),
		param:           make(map[string]map[string]*visitor),
		now:             time.Now,
	}
}

// NewRateLimiterFromConfig reads rate_limiter.* from the config.
func NewRateLimiterFromConfig() *RateLimiter {
	gRate, gBurst := config.GetGlobalRateLimiterConfig()
	pRate, pBurst := config.GetParamRateLimiterConfig()
	return NewRateLimiter(gRate, gBurst, pRate, pBurst, config.GetRateLimiterCleanupTimeout())
}

func cityParam(r *http.Request) string {
	return strings.ToLower(chi.URLParam(r, "city"))
}

func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, exists := rl.global[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.globalPerMinute/60.0), rl.globalBurst)}
		rl.global[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) getParamLimiter(ip, param string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.param[ip]; !ok {
		rl.param[ip] = make(map[string]*visitor)
	}
	v, exists := rl.param[ip][param]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.paramPerMinute/60.0), rl.paramBurst)}
		rl.param[ip][param] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Cleanup drops visitors not seen within the stale window.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, v := range rl.global {
		if now.Sub(v.lastSeen) > rl.staleAfter {
			delete(rl.global, ip)
		}
	}
	for ip, byParam := range rl.param {
		for p, v := range byParam {
			if now.Sub(v.lastSeen) > rl.staleAfter {
				delete(byParam, p)
			}
		}
		if len(byParam) == 0 {
			delete(rl.param, ip)
		}
	}
}

// DefaultCleanupInterval is used by Run when given a non-positive interval.
const DefaultCleanupInterval = time.Minute

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// Visitors returns the number of tracked IPs, for tests and debugging.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.global)
}

// Reset clears all visitor state.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.global = make(map[string]*visitor)
	rl.param = make(map[string]map[string]*visitor)
}

// getIP keys visitors on RemoteAddr. Forwarding headers are left to the
// router's RealIP middleware, which rewrites RemoteAddr before this runs.
func getIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeTooManyRequests(w http.ResponseWriter, detail, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse(detail, message))
}

// Middleware rejects requests over either limit with 429 and the JSON error envelope.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		param := rl.Param(r)
		if param == "" {
			param = "__none__"
		}
		if !rl.getGlobalLimiter(ip).Allow() {
			config.GetLogger().Infow("Rate limit exceeded", "ip", ip, "scope", "global")
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per user/IP", rl.globalPerMinute),
				"Too Many Requests (global limit)")
			return
		}
		if !rl.getParamLimiter(ip, param).Allow() {
			config.GetLogger().Infow("Rate limit exceeded", "ip", ip, "scope", "city", "city", param)
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per city per user/IP", rl.paramPerMinute),
				"Too Many Requests (per-city limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
