package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/target/harvester-api/config"
	httpx "github.com/target/harvester-api/internal/http"
	"github.com/target/harvester-api/internal/observability/statsd"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	HTTP     config.HTTPConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

func routerServices(c ServiceContainer) httpx.RouterServices {
	rs := httpx.RouterServices{
		Projects:  c.Projects,
		Jobs:      c.Jobs,
		Runs:      c.Runs,
		Results:   c.Results,
		Validator: c.Validator,
		Health:    c.Health,
	}
	if c.Auth != nil {
		rs.Auth = c.Auth
	}
	return rs
}

// BuildHTTPHandler wires the router and its middleware.
// Order: Recover -> Logging -> CORS -> RateLimit -> Metrics -> Router.
func BuildHTTPHandler(cfg HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var sink statsd.Sink
	if cfg.Services.Metrics != nil {
		sink = cfg.Services.Metrics
	}

	// Metrics sits directly on the router so it observes the matched pattern.
	return httpx.Chain(httpx.NewRouter(routerServices(cfg.Services)),
		httpx.Recover(logger),
		httpx.Logging(logger),
		httpx.CORS(httpx.CORSConfig{
			AllowedOrigins:   cfg.HTTP.CORS.AllowedOrigins,
			AllowCredentials: cfg.HTTP.CORS.AllowCredentials,
			MaxAge:           cfg.HTTP.CORS.MaxAge,
		}),
		httpx.RateLimit(httpx.RateLimitConfig{
			RequestsPerSecond: cfg.HTTP.RateLimit.RequestsPerSecond,
			Burst:             cfg.HTTP.RateLimit.Burst,
		}),
		httpx.Metrics(sink),
	)
}

func newServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Listen binds addr, capping concurrent connections when maxConns > 0.
func Listen(ctx context.Context, addr string, maxConns int) (net.Listener, error) {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

// ServeHTTP serves on ln until ctx is cancelled, then shuts the server down
// gracefully. It returns nil after a clean shutdown.
func ServeHTTP(ctx context.Context, cfg HTTPServerConfig, ln net.Listener) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	server := newServer(cfg.HTTP, BuildHTTPHandler(cfg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(ShutdownConfig{
			Server:  server,
			Timeout: cfg.HTTP.ShutdownTimeout,
			Logger:  logger,
		})
	})
	return g.Wait()
}

// RunHTTPServer listens on the configured address and serves until ctx is done.
func RunHTTPServer(ctx context.Context, cfg HTTPServerConfig) error {
	ln, err := Listen(ctx, cfg.HTTP.Addr, cfg.HTTP.MaxConns)
	if err != nil {
		return err
	}
	return ServeHTTP(ctx, cfg, ln)
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server  *http.Server
	Timeout time.Duration // Optional, defaults to 10s
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// The caller's context is already cancelled by the time we get here.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
