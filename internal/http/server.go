// Package http exposes the planner as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"payoff/internal/amqp"
	"payoff/internal/core"
	"payoff/internal/export"
	"payoff/internal/log"
	"payoff/internal/services"
	"payoff/internal/storage"
)

// SessionStore keeps debt sets and their run history.
type SessionStore interface {
	CreateSession(ctx context.Context, set core.DebtSet) (string, error)
	LoadSession(ctx context.Context, id string) (*storage.Session, error)
	RecordRun(ctx context.Context, sessionID string, horizon int, sum core.Summary) (*storage.Run, error)
	ListRuns(ctx context.Context, sessionID string) ([]storage.Run, error)
	DeleteSession(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// RequestPublisher queues a simulation for the worker.
type RequestPublisher interface {
	PublishRequest(ctx context.Context, req *amqp.SimulationRequest) error
}

// Options configures the listener.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RateLimit    int
}

// Deps are the collaborators a server needs. Sessions is required. Jobs and
// Exporter are optional and their endpoints answer 503 without them.
type Deps struct {
	Planner  *services.Planner
	Sessions SessionStore
	Jobs     RequestPublisher
	Exporter export.ScheduleWriter
}

type Server struct {
	http.Server
	planner     *services.Planner
	sessions    SessionStore
	jobs        RequestPublisher
	exporter    export.ScheduleWriter
	rateLimiter *rateLimiter
	logger      *log.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(opts Options, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 60 * time.Second
	}

	s := &Server{
		planner:     deps.Planner,
		sessions:    deps.Sessions,
		jobs:        deps.Jobs,
		exporter:    deps.Exporter,
		rateLimiter: newRateLimiter(opts.RateLimit),
		logger:      logger,
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/v1/validate", s.handleValidate)
	mux.HandleFunc("POST /api/v1/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/v1/compare", s.handleCompare)
	mux.HandleFunc("POST /api/v1/whatif", s.handleWhatIf)
	mux.HandleFunc("POST /api/v1/import", s.handleImport)
	mux.HandleFunc("POST /api/v1/jobs", s.handleSubmitJob)

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/simulate", s.handleSessionSimulate)
	mux.HandleFunc("GET /api/v1/sessions/{id}/runs", s.handleListRuns)
	mux.HandleFunc("POST /api/v1/sessions/{id}/export", s.handleSessionExport)

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = log.Middleware(logger, func(r *http.Request) string { return requestIDFrom(r.Context()) })(handler)
	handler = s.withRequestTracing(handler)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s
}

// Shutdown stops the rate limiter and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestTracing assigns a request id, echoes it in X-Request-ID, sets
// the security headers and logs the completed request.
func (s *Server) withRequestTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.NewStructuredLogger(s.logger.With(log.FieldRequestID, requestID)).
			LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), extractClientIP(r))
	})
}

// withRateLimit throttles mutating requests per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{
					Error:     "rate limit exceeded",
					RequestID: requestIDFrom(r.Context()),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
