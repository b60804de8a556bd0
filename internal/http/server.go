package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"finview/internal/cache"
	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/reports"
	"finview/internal/sources"
	"finview/internal/views"
)

const (
	datasetCacheKey   = "dataset"
	readinessTimeout  = 5 * time.Second
	requestIDHeader   = "X-Request-ID"
	defaultDatasetTTL = 30 * time.Second
)

var errEmptyDataset = errors.New("no transactions available")

// pinger is implemented by sources backed by a connection, such as the
// sqlite ledger.
type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API is built on.
type Deps struct {
	Loader  sources.Loader
	Views   *views.Builder
	Reports *reports.Service
	// DatasetTTL bounds how long a loaded dataset is reused. Zero picks the
	// default; a negative value disables caching.
	DatasetTTL time.Duration
	// RequestsPerMinute limits page requests per client IP.
	RequestsPerMinute int
	Now               func() time.Time
}

type Server struct {
	http.Server
	loader      sources.Loader
	views       *views.Builder
	reports     *reports.Service
	now         func() time.Time
	log         *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	datasets *cache.LRUCache[core.Dataset]
	loadMu   sync.Mutex

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Views == nil {
		deps.Views = views.NewBuilder(nil, nil, logger)
	}
	if deps.Reports == nil {
		deps.Reports = reports.NewService(nil, logger)
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		loader:      deps.Loader,
		views:       deps.Views,
		reports:     deps.Reports,
		now:         deps.Now,
		log:         logger,
		rateLimiter: newRateLimiter(deps.RequestsPerMinute),
		metrics:     &securityMetrics{},
	}
	switch ttl := deps.DatasetTTL; {
	case ttl == 0:
		s.datasets = cache.NewLRUCache[core.Dataset](1, defaultDatasetTTL)
	case ttl > 0:
		s.datasets = cache.NewLRUCache[core.Dataset](1, ttl)
	}
	go s.rateLimiter.startCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/home", s.limited(s.handleHome))
	mux.HandleFunc("GET /api/events", s.limited(s.handleEvents))
	mux.HandleFunc("GET /api/events/{period}", s.limited(s.handleEvents))
	mux.HandleFunc("GET /api/reports/category", s.handleCategoryReport)
	mux.HandleFunc("GET /api/reports/weekday", s.handleWeekdayReport)
	mux.HandleFunc("GET /api/reports/workday", s.handleWorkdayReport)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/search/phones", s.handlePhoneSearch)
	mux.HandleFunc("GET /api/search/transfers", s.handleTransferSearch)
	mux.HandleFunc("GET /api/cashback", s.handleCashback)
	mux.HandleFunc("GET /api/investment", s.handleInvestment)

	requestID := func(r *http.Request) string { return r.Header.Get(requestIDHeader) }
	s.Handler = withRequestID(
		log.Middleware(logger)(
			log.RequestIDMiddleware(requestID)(
				s.middleware(mux))))
	return s
}

// Caches exposes the dataset cache for periodic cleanup.
func (s *Server) Caches() []cache.Cleaner {
	if s.datasets == nil {
		return nil
	}
	return []cache.Cleaner{s.datasets}
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.log.InfoContext(ctx, "HTTP server shutting down",
			log.FieldOperation, log.OpShutdown,
			"rate_limit_hits", atomic.LoadInt64(&s.metrics.rateLimitHits),
			"suspicious_requests", atomic.LoadInt64(&s.metrics.suspiciousRequests))
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestID makes sure every request carries an ID, echoing it back to
// the client.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// middleware applies the security and CORS headers, answers preflights and
// logs the outcome of every request.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		setSecurityHeaders(w, r)
		setCORSHeaders(w)

		access := log.NewStructuredLogger(log.FromContext(ctx))
		if reason := detectSuspiciousRequest(r, s.metrics); reason != "" {
			access.LogFlagged(ctx, "Suspicious request", reason, r, clientIP)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		access.LogHTTPStart(ctx, r, clientIP)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// limited applies the per-client rate limit.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP, s.metrics) {
			ctx := r.Context()
			log.NewStructuredLogger(log.FromContext(ctx)).LogFlagged(ctx, "Rate limit exceeded", "rate_limit", r, clientIP)
			TooManyRequestsError().Write(w)
			return
		}
		next(w, r)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// dataset returns the current transactions, reusing a recent load when the
// cache is enabled. An empty dataset is an error for the API.
func (s *Server) dataset(ctx context.Context) (core.Dataset, error) {
	if s.loader == nil {
		return core.Dataset{}, errors.New("no transaction source configured")
	}
	if s.datasets != nil {
		if ds, ok := s.datasets.Get(datasetCacheKey); ok {
			return ds, nil
		}
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.datasets != nil {
		if ds, ok := s.datasets.Get(datasetCacheKey); ok {
			return ds, nil
		}
	}

	ds, err := s.loader.Load(ctx)
	if err != nil {
		return core.Dataset{}, err
	}
	if ds.IsEmpty() {
		return core.Dataset{}, errEmptyDataset
	}
	if s.datasets != nil {
		s.datasets.Set(datasetCacheKey, ds)
	}
	return ds, nil
}

// referenceDate is the latest operation date in ds, or now when no row
// carries a usable date.
func (s *Server) referenceDate(ds core.Dataset) time.Time {
	if latest, ok := ds.LatestOperation(); ok {
		return latest
	}
	return s.now()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if p, ok := s.loader.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness ping failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "transaction store unreachable").Write(w)
			return
		}
	}
	if _, err := s.dataset(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, err.Error()).Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
