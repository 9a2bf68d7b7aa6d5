package http

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/report"
	appweb "expenses/web"
)

// ExpenseService is what the handlers need from services.ExpenseService.
type ExpenseService interface {
	CurrentMonth() core.Month
	Today() core.Date
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	AddExpense(ctx context.Context, date, amount, category, note string) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, date, amount, category, note string) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListMonth(ctx context.Context, m core.Month) ([]core.Expense, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	MonthlySummary(ctx context.Context, m core.Month) (report.Summary, error)
	Export(ctx context.Context, w io.Writer) (int, error)
	ExportMonth(ctx context.Context, w io.Writer, m core.Month) (int, error)
	Ping(ctx context.Context) error
}

type Options struct {
	Addr string
	// Categories suggested by the entry form; core.Categories when empty.
	Categories []string
	// Mutations per client per minute; 0 disables limiting.
	RateLimitPerMinute int
	Logger             *slog.Logger
}

// Server embeds http.Server and serves the dashboard, the JSON API and
// the CSV download.
type Server struct {
	http.Server

	svc        ExpenseService
	templates  *template.Template
	categories []string
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

func NewServer(svc ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(applog.FieldComponent, applog.ComponentHTTP)

	categories := opts.Categories
	if len(categories) == 0 {
		categories = core.Categories
	}

	r := mux.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:        svc,
		categories: categories,
		logger:     logger,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	// Probes and metrics skip the request middleware.
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	app := r.NewRoute().Subrouter()
	app.Use(trace.NewMiddleware(logger, security.ClientIP).Middleware)
	app.Use(security.DashboardPolicy().Middleware)
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		app.Use(s.limiter.Middleware(security.ClientIP))
	}

	// Pages
	app.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	app.HandleFunc("/add", s.handleAddForm).Methods(http.MethodGet)
	app.HandleFunc("/add", s.handleAddSubmit).Methods(http.MethodPost)
	app.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	app.HandleFunc("/edit/{id:[0-9]+}", s.handleEditForm).Methods(http.MethodGet)
	app.HandleFunc("/edit/{id:[0-9]+}", s.handleEditSubmit).Methods(http.MethodPost)
	app.HandleFunc("/delete/{id:[0-9]+}", s.handleDeleteSubmit).Methods(http.MethodPost)
	app.HandleFunc("/chart-data", s.handleChartData).Methods(http.MethodGet)
	app.HandleFunc("/export.csv", s.handleExportCSV).Methods(http.MethodGet)

	// JSON API
	api := app.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleDeleteExpense).Methods(http.MethodDelete)

	return s
}

// Shutdown stops the listener and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
