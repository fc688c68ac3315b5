// Package gate decides whether a protected view may render for the
// current authentication state.
package gate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/darshan87986/your-account-space/internal/model"
)

// Decision is the gate outcome for one AuthState.
type Decision int

const (
	// ShowLoading renders a placeholder while state is unresolved.
	ShowLoading Decision = iota
	// RedirectToLogin sends the visitor to the login view, replacing
	// the history entry rather than pushing one.
	RedirectToLogin
	// RenderContent lets the protected subtree render.
	RenderContent
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "show-loading"
	case RedirectToLogin:
		return "redirect-to-login"
	case RenderContent:
		return "render-content"
	default:
		return "unknown"
	}
}

// Decide maps an AuthState to a gate outcome. Loading always wins;
// otherwise an absent user redirects.
func Decide(st model.AuthState) Decision {
	switch {
	case st.Loading:
		return ShowLoading
	case st.User == nil:
		return RedirectToLogin
	default:
		return RenderContent
	}
}

// HasRedirectToken reports whether a URL carries the access-token
// marker left by a social-provider handshake, in query or fragment
// form. The token itself is never parsed here.
func HasRedirectToken(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Query().Get("access_token") != "" {
		return true
	}
	if u.Fragment == "" {
		return false
	}
	vals, err := url.ParseQuery(u.Fragment)
	return err == nil && vals.Get("access_token") != ""
}

// StateSource is the store surface the gate needs. Implemented by
// *authstate.Store.
type StateSource interface {
	State() model.AuthState
	Refresh(ctx context.Context)
}

type ctxKey string

const userKey ctxKey = "gate.user"

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// Protect returns middleware gating a subtree on the store's state.
// When the request URL signals a handshake redirect, a best-effort
// session probe is launched before deciding.
func Protect(src StateSource, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if HasRedirectToken(r.URL.String()) {
				go src.Refresh(context.WithoutCancel(r.Context()))
			}

			st := src.State()
			switch Decide(st) {
			case ShowLoading:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Refresh", "1")
				fmt.Fprint(w, "<!doctype html><title>Loading</title><p>Loading...</p>")
			case RedirectToLogin:
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), st.User)))
			}
		})
	}
}
