package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"safe-haven/pkg/config"
	"safe-haven/pkg/mailer"
	"safe-haven/pkg/middleware"
	"safe-haven/pkg/objectstore"
	"safe-haven/pkg/queue"
	"safe-haven/pkg/response"
	"safe-haven/services/api-service/models"
	"safe-haven/services/api-service/store"
)

// App holds every dependency the handlers need. Nothing reads the
// environment after construction; configuration travels through here.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	users     store.UserStore
	incidents store.IncidentStore
	archive   store.ArchiveStore
	mail      mailer.Sender
	events    queue.Publisher
	photos    objectstore.Store
	client    *http.Client
	ping      func(ctx context.Context) error

	// overridable in tests
	now    func() time.Time
	newOTP func() (string, error)
}

func NewApp(
	cfg *config.Config,
	log *zap.Logger,
	users store.UserStore,
	incidents store.IncidentStore,
	archive store.ArchiveStore,
	mail mailer.Sender,
	events queue.Publisher,
	photos objectstore.Store,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		users:     users,
		incidents: incidents,
		archive:   archive,
		mail:      mail,
		events:    events,
		photos:    photos,
		client:    &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
		newOTP:    generateOTP,
	}
}

func (a *App) Routes() http.Handler {
	middleware.RegisterMetrics()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle("GET /metrics", middleware.MetricsHandler())

	// auth
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/check-email", a.handleCheckEmail)
	mux.HandleFunc("POST /api/auth/verify-otp", a.handleVerifyOTP)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.Handle("GET /api/auth/me", a.auth(a.handleMe))

	// incidents
	mux.HandleFunc("GET /api/incidents", a.handleListIncidents)
	mux.Handle("POST /api/incidents", a.auth(a.handleCreateIncident))
	mux.Handle("GET /api/incidents/user/{userId}", a.auth(a.handleUserIncidents))
	mux.Handle("GET /api/incidents/archived", a.auth(a.handleArchivedIncidents))
	mux.Handle("POST /api/incidents/photo", a.auth(a.handleUploadPhoto))

	// stats
	mux.HandleFunc("GET /api/stats", a.handlePublicStats)

	// upstream proxies
	mux.Handle("GET /api/proxy/route", a.auth(a.handleRouteProxy))
	mux.Handle("GET /api/proxy/geocode", a.auth(a.handleGeocodeProxy))
	mux.Handle("GET /api/proxy/crimes", a.auth(a.handleCrimesProxy))

	// admin
	mux.Handle("GET /api/admin/stats", a.admin(a.handleAdminStats))
	mux.Handle("GET /api/admin/users", a.admin(a.handleAdminUsers))
	mux.Handle("PATCH /api/admin/users/{id}", a.admin(a.handleAdminUpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", a.admin(a.handleAdminDeleteUser))
	mux.Handle("GET /api/admin/incidents", a.admin(a.handleAdminIncidents))
	mux.Handle("PATCH /api/admin/incidents/{id}/status", a.admin(a.handleModerateIncident))
	mux.Handle("DELETE /api/admin/incidents/{id}", a.admin(a.handleAdminDeleteIncident))

	// embedded client shell
	mux.Handle("/", a.webHandler())

	return middleware.Trace(middleware.Metrics(middleware.RequestLogger(a.log)(mux)))
}

func (a *App) auth(h http.HandlerFunc) http.Handler {
	return middleware.Auth([]byte(a.cfg.JWT.Secret))(h)
}

// admin wraps auth and then re-fetches the user record so a stale token can
// never carry stale privileges. Owner satisfies every admin check.
func (a *App) admin(h http.HandlerFunc) http.Handler {
	gate := func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.UserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "No token, authorization denied", "")
			return
		}

		user, err := a.users.FindByID(r.Context(), id)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "User not found", "")
			return
		}

		if !user.Role.AtLeast(models.RoleAdmin) {
			response.Error(w, http.StatusForbidden, "Access denied. Admin privileges required.", "")
			return
		}

		h(w, r)
	}
	return a.auth(gate)
}
