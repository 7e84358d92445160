// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultCacheSize bounds the number of client+endpoint limiters kept.
const DefaultCacheSize = 10000

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	// CacheSize bounds the number of tracked limiters; the least recently
	// used are evicted first.
	CacheSize       int
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter manages one token bucket per client and endpoint.
type Limiter struct {
	config   *Config
	limiters *lru.Cache[string, *rate.Limiter]
	now      func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = NewConfig(0, 0)
	}
	size := config.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *rate.Limiter](size)

	return &Limiter{
		config:   config,
		limiters: cache,
		now:      time.Now,
	}
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	// Check if rate limiting is disabled
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}

	// Check blacklist
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	// Find matching endpoint configuration
	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if endpointConfig == nil {
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 || endpointConfig.Window <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + endpoint + ":" + method
	lim := l.limiter(key, endpointConfig)

	now := l.now()
	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)

	info := Info{
		Allowed:   allowed,
		Limit:     endpointConfig.Limit,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetTime: now.Add(untilFull(lim, tokens)),
	}
	if !allowed {
		info.RetryAfter = secondsFor(1-tokens, lim.Limit())
	}
	return allowed, info
}

func (l *Limiter) limiter(key string, cfg *EndpointConfig) *rate.Limiter {
	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Limit
	}
	lim := rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Limit)), burst)
	// Another request may have raced us to the same key; keep the first.
	if prev, ok, _ := l.limiters.PeekOrAdd(key, lim); ok {
		return prev
	}
	return lim
}

func untilFull(lim *rate.Limiter, tokens float64) time.Duration {
	return secondsFor(float64(lim.Burst())-tokens, lim.Limit())
}

func secondsFor(tokens float64, r rate.Limit) time.Duration {
	if tokens <= 0 || r <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(r) * float64(time.Second))
}

// Len returns the number of tracked limiters.
func (l *Limiter) Len() int {
	return l.limiters.Len()
}

// Stop releases tracked limiters.
func (l *Limiter) Stop() {
	l.limiters.Purge()
}
