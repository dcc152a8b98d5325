package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"moneymind/internal/auth"
	"moneymind/internal/log"
	"moneymind/internal/metrics"
	"moneymind/internal/middleware/cors"
	"moneymind/internal/middleware/ratelimit"
	"moneymind/internal/middleware/security"
	"moneymind/internal/middleware/trace"
	"moneymind/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Users        *services.UserService
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Dashboard    *services.DashboardService
	Activity     *services.ActivityService
	Tokens       *auth.Tokens
	Store        Pinger
	// Metrics is optional; without it /metrics is not mounted.
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

// Options tune the middleware stack.
type Options struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	TrustedProxies     []string
	// InrPerUSD is the fixed rate used by the converter tool.
	InrPerUSD decimal.Decimal
}

// Server wraps http.Server with the API routes and the rate limiter it
// owns.
type Server struct {
	http.Server
	deps         Deps
	logger       *log.Logger
	limiter      *ratelimit.Limiter
	inrPerUSD    decimal.Decimal
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background goroutines.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:      deps,
		logger:    logger,
		inrPerUSD: opts.InrPerUSD,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}

	clientIP := security.NewClientIP()
	for _, cidr := range opts.TrustedProxies {
		if err := clientIP.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var routed http.Handler = mux
	if deps.Metrics != nil {
		routed = deps.Metrics.Middleware(mux)
	}

	// Health checks and scrapes are not rate limited.
	limited := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, clientIP.Extract(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(routed)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		routed.ServeHTTP(w, r)
	})

	handler = cors.New(opts.AllowedOrigins).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, clientIP.Extract).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	}

	mux.HandleFunc("POST /api/signup", s.handleSignup)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/token/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/profile", s.authed(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.authed(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/transactions", s.authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.authed(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.authed(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.authed(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.authed(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/goals", s.authed(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.authed(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals/{id}", s.authed(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.authed(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.authed(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.authed(s.handleContributeGoal))

	mux.HandleFunc("GET /api/dashboard/summary", s.authed(s.handleSummary))
	mux.HandleFunc("GET /api/dashboard/monthly", s.authed(s.handleMonthly))
	mux.HandleFunc("GET /api/dashboard/monthly.png", s.authed(s.handleMonthlyChart))

	mux.HandleFunc("GET /api/activity", s.authed(s.handleListActivity))

	mux.HandleFunc("POST /api/tools/calculate", s.authed(s.handleCalculate))
	mux.HandleFunc("POST /api/tools/sip", s.authed(s.handleSIP))
	mux.HandleFunc("GET /api/tools/convert", s.authed(s.handleConvert))
}

// authed rejects requests without a valid access token and puts the
// caller's identity on the context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := auth.BearerToken(r)
		if err != nil {
			ErrorFor(r, err, "").Write(w)
			return
		}
		id, err := s.deps.Tokens.VerifyAccess(raw)
		if err != nil {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected access token", log.FieldError, err)
			ErrorFor(r, err, "").Write(w)
			return
		}
		ctx := auth.WithIdentity(r.Context(), id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, id.UserID))
		next(w, r.WithContext(ctx))
	}
}

// userID is only called behind authed.
func userID(r *http.Request) int64 {
	id, _ := auth.IdentityFrom(r.Context())
	return id.UserID
}

// Shutdown gracefully shuts down the server and the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
