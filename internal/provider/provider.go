// Package provider implements the client for the hosted identity
// platform: password and social sign-in, sign-out, session queries,
// token refresh, and change notifications.
package provider

import (
	"context"

	"github.com/darshan87986/your-account-space/internal/model"
)

// Event classifies a session-change notification.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Callback receives session-change notifications. session is nil when
// the event carries no session (sign-out, expiry without refresh).
type Callback func(event Event, session *model.Session)

// Subscription is a cancellable registration for change notifications.
type Subscription interface {
	// Unsubscribe stops delivery. Safe to call more than once.
	Unsubscribe()
}

// Client is the identity-platform surface consumed by the session
// store. Implementations must be safe for concurrent use.
type Client interface {
	// CurrentSession returns the session currently held, refreshing it
	// first when expired. (nil, nil) means no session.
	CurrentSession(ctx context.Context) (*model.Session, error)

	// OnAuthStateChange registers fn for session-change notifications.
	OnAuthStateChange(fn Callback) Subscription

	// SignUp creates a platform account. The returned user carries the
	// platform-assigned ID; no session is established (the platform may
	// require email confirmation first).
	SignUp(ctx context.Context, email, password string, meta map[string]string) (*model.User, error)

	// SignInWithPassword exchanges credentials for a session. On
	// success the session is adopted and a SIGNED_IN notification is
	// emitted before this returns.
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)

	// AuthorizeURL builds the browser redirect URL that starts a
	// social-provider handshake. Control returns via redirectTo with
	// tokens embedded in the URL fragment.
	AuthorizeURL(providerName, redirectTo string) (string, error)

	// AdoptSession validates tokens captured from a handshake redirect
	// (or a persisted session) against the platform and adopts the
	// resulting session, emitting SIGNED_IN.
	AdoptSession(ctx context.Context, accessToken, refreshToken string) (*model.Session, error)

	// SignOut revokes the session platform-side, drops it locally, and
	// emits SIGNED_OUT.
	SignOut(ctx context.Context) error
}
