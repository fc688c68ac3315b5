package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/darshan87986/your-account-space/internal/gate"
)

// NewRouter wires pages, auth endpoints, and operational routes.
func NewRouter(h *Handlers, store gate.StateSource, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(log))
	r.Use(RequestLogger(log))

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/login", h.LoginPage)
	r.Get("/signup", h.SignupPage)
	r.Get("/auth/callback", h.CallbackPage)
	r.Get("/auth/{provider}", h.SocialLogin)

	r.Group(func(r chi.Router) {
		r.Use(AuthRateLimit(rate.Limit(1), 5))
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)
		r.Post("/auth/callback", h.Callback)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.Protect(store, "/login"))
		r.Get("/", h.Home)
	})

	return r
}
