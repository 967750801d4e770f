package adapthttp

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"plank/internal/adapter/events"
	"plank/internal/app"
	"plank/internal/domain"
	"plank/internal/telemetry"
)

// Deps are the services the HTTP adapter drives.
type Deps struct {
	Session *app.SessionTimer
	History *app.HistoryService
	Profile *app.ProfileService
	Export  *app.ExportService
	// Auth gates the API; nil leaves it open.
	Auth *app.AuthService
	OIDC OIDCConfig
	Hub  *events.Hub
	// Metrics and Gatherer are optional.
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
	Clock    domain.Clock
	WebDir   string
	Logger   *slog.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	session  *app.SessionTimer
	history  *app.HistoryService
	profile  *app.ProfileService
	export   *app.ExportService
	authSvc  *app.AuthService
	hub      *events.Hub
	metrics  *telemetry.Metrics
	gatherer prometheus.Gatherer
	clock    domain.Clock
	webDir   string
	logger   *slog.Logger

	oidcConfig  OIDCConfig
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		session:    d.Session,
		history:    d.History,
		profile:    d.Profile,
		export:     d.Export,
		authSvc:    d.Auth,
		hub:        d.Hub,
		metrics:    d.Metrics,
		gatherer:   d.Gatherer,
		clock:      d.Clock,
		webDir:     d.WebDir,
		logger:     logger,
		oidcConfig: d.OIDC,
	}
}

// WithoutAuth disables the access gate (tests, trusted networks).
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/config", s.handleConfig)
	api.HandleFunc("/sso/login", s.handleSSOLogin)
	api.HandleFunc("/sso/callback", s.handleSSOCallback)

	private := http.NewServeMux()
	private.HandleFunc("/me", s.handleMe)
	private.HandleFunc("/session", s.handleSessionStatus)
	private.HandleFunc("/session/start", s.handleSessionStart)
	private.HandleFunc("/session/stop", s.handleSessionStop)
	private.HandleFunc("/session/events", s.handleSessionEvents)

	private.HandleFunc("/history/overview", s.handleHistoryOverview)
	private.HandleFunc("/history/calendar", s.handleHistoryCalendar)
	private.HandleFunc("/history/day", s.handleHistoryDay)
	private.HandleFunc("/history/series", s.handleHistorySeries)

	private.HandleFunc("/achievements", s.handleAchievements)
	private.HandleFunc("/achievements/{id}/poster.png", s.handleAchievementPoster)

	private.HandleFunc("/profile", s.handleProfile)
	private.HandleFunc("/profile/draft", s.handleProfileDraft)
	private.HandleFunc("/profile/metrics", s.handleProfileMetrics)
	private.HandleFunc("/profile/trend", s.handleProfileTrend)

	private.HandleFunc("/export", s.handleExport)
	private.HandleFunc("/report", s.handleReport)

	api.Handle("/", s.authMiddleware(private))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.gatherer != nil {
		root.Handle("/metrics", telemetry.Handler(s.gatherer))
	}
	root.Handle("/", spaFromDisk(s.webDir))

	var h http.Handler = withNoCache(root)
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	return s.loggingMiddleware(h)
}
