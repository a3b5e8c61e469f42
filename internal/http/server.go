package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"tutorbill/internal/log"
	"tutorbill/internal/middleware/ratelimit"
	"tutorbill/internal/middleware/security"
	"tutorbill/internal/middleware/trace"
	"tutorbill/internal/records"
	"tutorbill/internal/services"
)

// Options configures the optional parts of the server. The zero value serves
// the view with no record creation, no month listing and no rate limiting.
type Options struct {
	Creator        records.Creator
	Months         records.MonthLister
	AllowedOrigins []string
	// Limiter caps mutating requests per client. Nil disables limiting.
	Limiter  *ratelimit.Limiter
	Detector *security.Detector
	Logger   *log.Logger
	Headers  security.HeadersConfig
}

type Server struct {
	http.Server
	view     *services.MonthlyView
	creator  records.Creator
	months   records.MonthLister
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, view *services.MonthlyView, opts Options) *Server {
	if opts.Detector == nil {
		opts.Detector = security.NewDetector()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Headers == (security.HeadersConfig{}) {
		opts.Headers = security.DefaultHeadersConfig()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		view:     view,
		creator:  opts.Creator,
		months:   opts.Months,
		limiter:  opts.Limiter,
		detector: opts.Detector,
		tracer:   trace.NewMiddleware(opts.Detector.ExtractClientIP),
	}

	router := mux.NewRouter()
	s.routes(router)

	var handler http.Handler = router
	handler = s.detector.Middleware(handler)
	handler = security.Headers(opts.Headers)(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(opts.Logger.WithComponent(log.ComponentHTTP))(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{"Content-Disposition", trace.HeaderRequestID},
	}).Handler(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.limitMutations)

	api.HandleFunc("/view", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/view/month/shift/{delta:-?[0-9]+}", s.handleShiftMonth).Methods(http.MethodPost)
	api.HandleFunc("/view/month/{month}", s.handleChangeMonth).Methods(http.MethodPut)
	api.HandleFunc("/view/reload", s.handleReload).Methods(http.MethodPost)
	api.HandleFunc("/view/selection/all", s.handleToggleSelectAll).Methods(http.MethodPost)
	api.HandleFunc("/view/selection/{studentId:[0-9]+}", s.handleToggleSelection).Methods(http.MethodPost)
	api.HandleFunc("/view/selection", s.handleClearSelection).Methods(http.MethodDelete)
	api.HandleFunc("/months", s.handleMonths).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/toggle-payment", s.handleToggleRecords).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id:[0-9]+}/toggle-payment", s.handleTogglePayment).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id:[0-9]+}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/students/{studentId:[0-9]+}/toggle-payment", s.handleToggleGroupPayment).Methods(http.MethodPut)

	api.HandleFunc("/invoices/students/{studentId:[0-9]+}", s.handleSingleInvoice).Methods(http.MethodPost)
	api.HandleFunc("/invoices/combined", s.handleCombinedInvoice).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
}

// limitMutations applies the rate limiter to every non-GET request.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// Metrics returns the request counters of the tracing middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the view has loaded a month.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.view.Snapshot().Loaded {
		ErrorResponse(http.StatusServiceUnavailable, "records not loaded yet").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
