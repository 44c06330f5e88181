// Package http exposes the budget tracker as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgeteer/internal/cache"
	"budgeteer/internal/core"
	"budgeteer/internal/engine"
	"budgeteer/internal/importer"
	applog "budgeteer/internal/log"
)

// Store is the repository surface the handlers need.
type Store interface {
	CreateBucket(ctx context.Context, name string, limit float64) (core.Bucket, error)
	UpdateBucketLimit(ctx context.Context, id string, limit float64) error
	ListBuckets(ctx context.Context, year int, month time.Month) ([]core.Bucket, error)

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error)

	SaveIncome(ctx context.Context, amount float64) error
	Income(ctx context.Context) (float64, error)
	SaveSavingsGoal(ctx context.Context, amount float64) error
	SavingsGoal(ctx context.Context) (float64, error)

	AddRecurringExpense(ctx context.Context, name string, amount float64) (core.FixedExpense, error)
	DisableRecurringExpense(ctx context.Context, id string) error
	ListRecurringExpenses(ctx context.Context) ([]core.FixedExpense, error)

	LoadBudgetState(ctx context.Context, year int, month time.Month) (core.BudgetState, error)
}

type Server struct {
	http.Server
	store       Store
	session     *importer.Session
	notifier    importer.Notifier
	logger      *applog.Logger
	rateLimiter *rateLimiter
	projections *cache.LRU[engine.Projection]
	now         func() time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithNotifier forwards manually created transactions to the sync queue.
func WithNotifier(n importer.Notifier) Option {
	return func(s *Server) { s.notifier = n }
}

// WithClock overrides the evaluation clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(addr string, store Store, session *importer.Session, logger *applog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		session:     session,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		projections: cache.NewLRU[engine.Projection](62, 5*time.Minute),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.projections.StartJanitor(time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/buckets", s.withMiddleware(s.handleListBuckets))
	mux.HandleFunc("POST /api/buckets", s.withMiddleware(s.handleCreateBucket))
	mux.HandleFunc("PATCH /api/buckets/{id}", s.withMiddleware(s.handleUpdateBucket))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/income", s.withMiddleware(s.handleGetIncome))
	mux.HandleFunc("PUT /api/income", s.withMiddleware(s.handleSetIncome))
	mux.HandleFunc("GET /api/savings-goal", s.withMiddleware(s.handleGetSavingsGoal))
	mux.HandleFunc("PUT /api/savings-goal", s.withMiddleware(s.handleSetSavingsGoal))

	mux.HandleFunc("GET /api/recurring", s.withMiddleware(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withMiddleware(s.handleAddRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withMiddleware(s.handleDisableRecurring))

	mux.HandleFunc("GET /api/projection", s.withMiddleware(s.handleProjection))

	mux.HandleFunc("GET /api/import", s.withMiddleware(s.handleImportState))
	mux.HandleFunc("POST /api/import/upload", s.withMiddleware(s.handleImportUpload))
	mux.HandleFunc("PATCH /api/import/drafts/{id}", s.withMiddleware(s.handleImportEditDraft))
	mux.HandleFunc("POST /api/import/drafts/{id}/toggle", s.withMiddleware(s.handleImportToggle))
	mux.HandleFunc("POST /api/import/select-all", s.withMiddleware(s.handleImportSelectAll))
	mux.HandleFunc("POST /api/import/select-none", s.withMiddleware(s.handleImportSelectNone))
	mux.HandleFunc("POST /api/import/reclassify", s.withMiddleware(s.handleImportReclassify))
	mux.HandleFunc("POST /api/import/commit", s.withMiddleware(s.handleImportCommit))
	mux.HandleFunc("POST /api/import/reset", s.withMiddleware(s.handleImportReset))

	return s
}

// withMiddleware adds request IDs, security headers, rate limiting and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := r.Context()
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		// Any successful write can change a cached projection.
		if r.Method != http.MethodGet && rw.statusCode < http.StatusBadRequest {
			s.projections.Purge()
		}

		logger.InfoContext(ctx, "request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
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

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the server and its background routines once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.projections != nil {
			s.projections.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// evaluate runs the projection engine against the stored state. Results
// are cached per evaluation date until the next write.
func (s *Server) evaluate(ctx context.Context, at time.Time) (engine.Projection, error) {
	key := at.Format("2006-01-02")
	if p, ok := s.projections.Get(key); ok {
		return p, nil
	}

	state, err := s.store.LoadBudgetState(ctx, at.Year(), at.Month())
	if err != nil {
		return engine.Projection{}, err
	}

	p := engine.Evaluate(state, at)
	s.projections.Set(key, p)
	return p, nil
}
