package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/darshan87986/your-account-space/internal/authstate"
	"github.com/darshan87986/your-account-space/internal/errs"
	"github.com/darshan87986/your-account-space/internal/gate"
	"github.com/darshan87986/your-account-space/internal/model"
	"github.com/darshan87986/your-account-space/internal/repository"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Handlers holds the console's request handlers and their dependencies.
type Handlers struct {
	store       *authstate.Store
	profiles    repository.ProfileRepository
	toasts      *Toasts
	log         *zap.Logger
	externalURL string
	tmpl        *template.Template
}

// NewHandlers parses templates and wires handler dependencies.
// externalURL is the address the browser reaches the console at; the
// social handshake redirects back to it.
func NewHandlers(store *authstate.Store, profiles repository.ProfileRepository, toasts *Toasts, log *zap.Logger, externalURL string) (*Handlers, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handlers{
		store:       store,
		profiles:    profiles,
		toasts:      toasts,
		log:         log,
		externalURL: externalURL,
		tmpl:        tmpl,
	}, nil
}

func (h *Handlers) render(w http.ResponseWriter, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Toasts"] = h.toasts.Drain()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

// LoginPage renders the sign-in form; an authenticated visitor is sent home.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.store.State().Phase() == model.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, "login.html", nil)
}

// Login handles password sign-in. On failure the form stays reachable
// and state is untouched; on success the store's notification path has
// already updated state and we navigate home.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if err := h.store.SignIn(r.Context(), r.PostFormValue("email"), r.PostFormValue("password")); err != nil {
		signInAttempts.WithLabelValues("failure").Inc()
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	signInAttempts.WithLabelValues("success").Inc()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignupPage renders the registration form.
func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "signup.html", nil)
}

// Signup registers an account and navigates to the login view. A
// sign-up whose profile insert failed still navigates unless the store
// runs in strict-profile mode.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	_, err := h.store.SignUp(r.Context(),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		r.PostFormValue("name"),
	)
	if err != nil {
		signUpAttempts.WithLabelValues("failure").Inc()
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}
	signUpAttempts.WithLabelValues("success").Inc()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout signs out and navigates to the login view exactly once.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context()); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SocialLogin starts a social-provider handshake; control leaves the
// application until the platform redirects back to /auth/callback.
func (h *Handlers) SocialLogin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	u, err := h.store.SignInWithProvider(name, h.externalURL+"/auth/callback")
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

// CallbackPage serves the tiny page that lifts handshake tokens out of
// the URL fragment (invisible to the server) and posts them back.
func (h *Handlers) CallbackPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "callback.html", nil)
}

// Callback adopts the posted handshake tokens.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	access := r.PostFormValue("access_token")
	if access == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := h.store.AdoptSession(r.Context(), access, r.PostFormValue("refresh_token")); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Home renders the protected profile page. The profile row is optional
// display data; the session user is authoritative.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	user, ok := gate.UserFromCtx(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	data := map[string]any{"User": user}
	if p, err := h.profiles.GetByID(r.Context(), user.ID); err == nil {
		data["Profile"] = p
	} else if !errors.Is(err, errs.ErrNotFound) {
		h.log.Warn("load profile", zap.Error(err))
	}
	h.render(w, "home.html", data)
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
