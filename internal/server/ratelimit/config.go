package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Generation endpoints call the model and share the strict limit.
var generationPaths = []string{
	"/api/generate-90day-plan",
	"/api/generate-90day-plan/stream",
	"/api/plan-blueprint",
	"/api/plan-details-workouts",
	"/api/plan-details-recovery",
	"/api/plan-details-coach-notes",
	"/api/plan-details",
	"/api/coach-hint",
	"/api/coach-checkin",
}

// NewConfig returns an enabled configuration allowing generatePerMin requests
// per minute on generation endpoints and defaultPerMin elsewhere. Non-positive
// values fall back to 5 and 60.
func NewConfig(generatePerMin, defaultPerMin int) *Config {
	if generatePerMin <= 0 {
		generatePerMin = 5
	}
	if defaultPerMin <= 0 {
		defaultPerMin = 60
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    defaultPerMin,
		DefaultWindow:   time.Minute,
		CacheSize:       DefaultCacheSize,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(generatePerMin),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
func DefaultEndpointConfigs(generatePerMin int) []EndpointConfig {
	burst := generatePerMin / 2
	if burst < 1 {
		burst = 1
	}
	configs := make([]EndpointConfig, 0, len(generationPaths))
	for _, path := range generationPaths {
		configs = append(configs, EndpointConfig{
			Path:   path,
			Method: "POST",
			Limit:  generatePerMin,
			Window: time.Minute,
			Burst:  burst,
		})
	}
	// Reads and the health check use the default limit and the matcher's
	// special case respectively.
	return configs
}

// ParseIPList parses a comma-separated list of IP addresses into a map.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	ips := strings.Split(list, ",")
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}
