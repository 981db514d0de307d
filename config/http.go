package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// MaxConns caps concurrently accepted connections. Zero means unlimited.
	MaxConns int `env:"HTTP_MAX_CONNS" envDefault:"0"`

	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// CORSConfig controls cross-origin access. Leaving AllowedOrigins empty
// disables CORS handling entirely.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:","`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE"           envDefault:"600"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 15 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 60 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	if h.MaxConns < 0 {
		h.MaxConns = 0
	}

	origins := h.CORS.AllowedOrigins[:0]
	for _, o := range h.CORS.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	h.CORS.AllowedOrigins = origins
	if h.CORS.MaxAge < 0 {
		h.CORS.MaxAge = 0
	}

	if h.RateLimit.RequestsPerSecond < 0 {
		h.RateLimit.RequestsPerSecond = 0
	}
	if h.RateLimit.Burst < 1 {
		h.RateLimit.Burst = 1
	}
}
