package http

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/assistant"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/aussiebroadwan/budgetwise/pkg/httpx"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
)

// Session is the signed-in state the pages act on.
type Session interface {
	StateSource
	HasToken() bool
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
}

// API is the Budgetwise backend as the pages use it.
type API interface {
	ListExpenses(ctx context.Context) ([]budgetsdk.Expense, error)
	CreateExpense(ctx context.Context, in budgetsdk.NewExpense) (budgetsdk.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	UploadExpenses(ctx context.Context, filename string, r io.Reader) (string, error)
	GetBudget(ctx context.Context) (budgetsdk.Budget, error)
	SetBudget(ctx context.Context, amount float64, month string) (budgetsdk.Budget, error)
	GetInsights(ctx context.Context) (budgetsdk.Insights, error)
	GetSuggestions(ctx context.Context) ([]string, error)
	PredictNextMonth(ctx context.Context) (budgetsdk.Prediction, error)
	GetProfile(ctx context.Context) (budgetsdk.Profile, error)
}

// Pinger reports whether local storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	session      Session
	api          API
	views        *Views
	static       fs.FS
	db           Pinger
	chat         *assistant.Chat
	buildVersion string
	startTime    time.Time
	now          func() time.Time
	logger       *slog.Logger
}

type RouterConfig struct {
	Session      Session
	API          API
	Views        *Views
	Static       fs.FS // Optional: served under /static/
	DB           Pinger
	BuildVersion string
	Logger       *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		session:      cfg.Session,
		api:          cfg.API,
		views:        cfg.Views,
		static:       cfg.Static,
		db:           cfg.DB,
		chat:         &assistant.Chat{},
		buildVersion: cfg.BuildVersion,
		startTime:    time.Now(),
		now:          time.Now,
		logger:       cfg.Logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
		httpx.CrossOriginProtection(),
		RecordRedirects,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPages()
	r.registerForms()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) guard(h http.HandlerFunc, extra ...httpx.Middleware) http.Handler {
	mws := append([]httpx.Middleware{Guard(r.session, http.HandlerFunc(r.handleLoading))}, extra...)
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	r.Mux.HandleFunc("GET /login", r.handleLoginForm)
	r.Mux.HandleFunc("GET /signup", r.handleSignupForm)

	// Sign-in attempts are limited per IP and email.
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(r.handleLogin),
			httpx.RateLimitByIPAndFormField(httpx.AuthFormLimit, "email"),
		),
	)
	r.Mux.Handle("POST /signup",
		httpx.Chain(http.HandlerFunc(r.handleSignup),
			httpx.RateLimitByIP(httpx.AuthFormLimit),
		),
	)

	r.Mux.Handle("POST /logout", r.guard(r.handleLogout))
}

func (r *Router) registerPages() {
	r.Mux.Handle("GET /{$}", r.guard(r.handleDashboard))
	r.Mux.Handle("GET /expenses", r.guard(r.handleExpenses))
	r.Mux.Handle("GET /reports", r.guard(r.handleReports))
	r.Mux.Handle("GET /predictions", r.guard(r.handlePredictions))
	r.Mux.Handle("GET /insights", r.guard(r.handleInsights))
	r.Mux.Handle("GET /settings", r.guard(r.handleSettings))
}

func (r *Router) registerForms() {
	limit := httpx.RateLimitByUser(httpx.WriteLimit)

	r.Mux.Handle("POST /expenses", r.guard(r.handleCreateExpense, limit))
	r.Mux.Handle("POST /expenses/{id}/delete", r.guard(r.handleDeleteExpense, limit))
	r.Mux.Handle("POST /settings/budget", r.guard(r.handleSetBudget, limit))
	r.Mux.Handle("POST /settings/upload", r.guard(r.handleUpload, limit))
	r.Mux.Handle("POST /assistant", r.guard(r.handleAssistant, limit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.HealthLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.db, r.session),
			httpx.RateLimitByIP(httpx.HealthLimit),
		),
	)

	if r.static != nil {
		files := http.StripPrefix("/static/", http.FileServer(http.FS(r.static)))
		r.Mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			files.ServeHTTP(w, req)
		}))
	}
}

func (r *Router) handleLoading(w http.ResponseWriter, req *http.Request) {
	r.render(w, req, http.StatusServiceUnavailable, "loading", page{Title: "Loading", Refresh: true})
}
