// Package model defines domain entities shared by the provider client,
// session store, and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is the identity-platform account a session belongs to.
type User struct {
	ID        uuid.UUID // platform-assigned, stable
	Email     string
	Name      string // display name from sign-up metadata
	CreatedAt time.Time
}

// Session is the platform-issued proof of authentication. Tokens are
// opaque here; expiry is kept only to schedule refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         *User
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Profile is the denormalized account row written to the relational
// store at sign-up time. Its ID always equals the platform user ID.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Phase enumerates positions of the session state machine.
type Phase int

const (
	// Resolving means the initial session query has not completed yet.
	Resolving Phase = iota
	// Authenticated means a session and its user are present.
	Authenticated
	// Anonymous means session state resolved to "no session".
	Anonymous
)

func (p Phase) String() string {
	switch p {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// AuthState is the process-wide authentication tuple. User is non-nil
// exactly when Session is non-nil; both always come from the same
// provider event.
type AuthState struct {
	User    *User
	Session *Session
	Loading bool
}

// Phase reports the state-machine position for this tuple.
func (s AuthState) Phase() Phase {
	switch {
	case s.Loading:
		return Resolving
	case s.User != nil:
		return Authenticated
	default:
		return Anonymous
	}
}
