package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/chatlog"
	"github.com/ambervale/relaycore/internal/moderation"
	"github.com/ambervale/relaycore/internal/session"
)

// RouterConfig holds the dependencies the admin HTTP surface needs.
// Populated in cmd/relayserver once every component is constructed.
type RouterConfig struct {
	JWTManager   *JWTManager
	PasswordHash []byte
	Registry     *session.Registry
	ChatLog      *chatlog.Buffer
	Bans         *moderation.Store
	Gatherer     prometheus.Gatherer
	Logger       *zap.Logger
}

// NewRouter builds the chi router for the admin surface. It never touches
// the game relay's wire protocol — only Registry/Store snapshots.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/admin/login", loginHandler(cfg.JWTManager, cfg.PasswordHash))

	r.Group(func(r chi.Router) {
		r.Use(authenticate(cfg.JWTManager))

		r.Get("/admin/players", playersHandler(cfg.Registry))
		r.Get("/admin/chatlog", chatlogHandler(cfg.ChatLog))

		r.Get("/admin/bans", listBansHandler(cfg.Bans))
		r.Post("/admin/bans", createBanHandler(cfg.Bans))
		r.Delete("/admin/bans/{id}", deleteBanHandler(cfg.Bans))
	})

	return r
}
