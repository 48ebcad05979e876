// Package api provides the search HTTP API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/JuniperSearch/core/search"
	"github.com/FocuswithJustin/JuniperSearch/internal/cache"
	"github.com/FocuswithJustin/JuniperSearch/internal/config"
	"github.com/FocuswithJustin/JuniperSearch/internal/logging"
	"github.com/FocuswithJustin/JuniperSearch/internal/metrics"
	"github.com/FocuswithJustin/JuniperSearch/internal/server"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	slowRequestThreshold   = 500 * time.Millisecond
)

// Server serves one search engine over HTTP and websockets.
type Server struct {
	cfg     *config.Config
	engine  *search.Engine
	metrics *metrics.Metrics
	cache   *cache.TTLCache[cacheKey, cachedSearch]
	hub     *Hub
	limiter *RateLimiter
	version string
	started time.Time
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithVersion sets the version reported by / and /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// New builds a server. A nil cfg uses the defaults.
func New(cfg *config.Config, engine *search.Engine, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if engine == nil {
		engine = search.New(nil)
	}
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		version: "dev",
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.metrics.SetCorpusVerses(engine.Corpus().Len())
	s.cache = cache.New[cacheKey, cachedSearch](cfg.Search.CacheTTL, cfg.Search.CacheSize)
	s.hub = NewHub(s.metrics)

	if cfg.Server.RateLimitRequests > 0 {
		burst := cfg.Server.RateLimitBurst
		if burst == 0 {
			burst = 10
		}
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.Server.RateLimitRequests,
			BurstSize:         burst,
		}, s.metrics)
	}

	s.handler = s.buildHandler()
	return s
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/read", s.handleRead)
	mux.HandleFunc("/books", s.handleBooks)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

func (s *Server) buildHandler() http.Handler {
	var handler http.Handler = server.SecurityHeadersMiddleware(s.routes())

	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}

	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
	}, handler)
	handler = server.TimingMiddleware(logging.GetLogger(), slowRequestThreshold, handler)
	return logging.CombinedMiddleware(handler)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and
// closes every websocket client.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}

	s.logStartup(ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if s.cfg.Server.TLS.Enabled {
			err = srv.ServeTLS(ln, s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if s.limiter != nil {
		g.Go(func() error {
			s.limiter.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.hub.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logging.Info("server stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) logStartup(addr net.Addr) {
	port := 0
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}

	protocol, wsProtocol := "http", "ws"
	if s.cfg.Server.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", s.cfg.Server.TLS.CertFile)
	}
	logging.ServerStartup("search_api", protocol, port,
		"websocket_protocol", wsProtocol,
		"verses", s.engine.Corpus().Len(),
		"fingerprint", s.engine.Corpus().Fingerprint())

	if len(s.cfg.Server.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.Server.AllowedOrigins))
	}
	if s.limiter != nil {
		logging.Info("rate limiting enabled",
			"requests_per_minute", s.limiter.config.RequestsPerMinute,
			"burst_size", s.limiter.config.BurstSize)
	}
}
