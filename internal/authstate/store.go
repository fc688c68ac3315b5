// Package authstate owns the process-wide authentication state
// machine: a single AuthState tuple kept in sync with the identity
// platform's change notifications, plus the mutating operations around
// it. All credential handling is delegated to the platform; this
// package only republishes its answers.
package authstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/darshan87986/your-account-space/internal/errs"
	"github.com/darshan87986/your-account-space/internal/model"
	"github.com/darshan87986/your-account-space/internal/provider"
	"github.com/darshan87986/your-account-space/internal/repository"
)

// Notifier surfaces transient user-facing messages (toasts). Store
// operations report outcomes through it instead of letting errors
// escape to the view layer.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// NopNotifier discards all messages.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Warning(string) {}
func (NopNotifier) Error(string)   {}

// Config tunes store policy.
type Config struct {
	// StrictProfile makes a failed profile insert after a successful
	// sign-up surface as the operation's error, so the caller can hold
	// navigation. Default: report a warning and keep the account valid.
	StrictProfile bool
}

// Listener observes AuthState snapshots after each transition.
type Listener func(model.AuthState)

// Store is the single source of truth for "am I authenticated". It
// starts in the resolving state, issues one asynchronous session query,
// and thereafter follows platform notifications. The initial query and
// notifications are unordered; both write the whole tuple, last write
// wins.
type Store struct {
	client   provider.Client
	profiles repository.ProfileRepository
	notify   Notifier
	log      *zap.Logger
	cfg      Config

	mu        sync.Mutex
	state     model.AuthState
	closed    bool
	sub       provider.Subscription
	nextID    int
	listeners map[int]Listener
}

// New constructs a store in the resolving state. Call Start to begin
// synchronizing with the platform.
func New(client provider.Client, profiles repository.ProfileRepository, notify Notifier, log *zap.Logger, cfg Config) *Store {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Store{
		client:    client,
		profiles:  profiles,
		notify:    notify,
		log:       log,
		cfg:       cfg,
		state:     model.AuthState{Loading: true},
		listeners: map[int]Listener{},
	}
}

// Start subscribes to platform notifications and launches the initial
// session query. The subscription is registered first so an early
// notification is never missed; whichever path resolves last wins.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	s.sub = s.client.OnAuthStateChange(func(event provider.Event, sess *model.Session) {
		s.log.Debug("auth state change", zap.String("event", string(event)))
		s.apply(sess)
	})
	s.mu.Unlock()

	go func() {
		sess, err := s.client.CurrentSession(ctx)
		if err != nil {
			s.log.Error("initial session query failed", zap.Error(err))
			s.resolveFailed()
			return
		}
		s.apply(sess)
	}()
}

// State returns the current AuthState snapshot.
func (s *Store) State() model.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for state snapshots; the returned func cancels
// the registration.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close cancels the platform subscription. Notifications arriving after
// Close are dropped without mutating state.
func (s *Store) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.closed = true
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// apply writes the full AuthState tuple derived from sess. Sessions
// without a user are treated as absent so that user and session are
// always present or absent together.
func (s *Store) apply(sess *model.Session) {
	st := model.AuthState{}
	if sess != nil && sess.User != nil {
		st.Session = sess
		st.User = sess.User
	}
	s.publish(st)
}

// resolveFailed only clears the loading flag, leaving the rest of the
// tuple untouched, mirroring a failed initial query.
func (s *Store) resolveFailed() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Loading = false
	st := s.state
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()
	for _, fn := range ls {
		fn(st)
	}
}

func (s *Store) publish(st model.AuthState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = st
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()
	for _, fn := range ls {
		fn(st)
	}
}

func (s *Store) snapshotListenersLocked() []Listener {
	ls := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	return ls
}

// SignUp creates a platform account and writes the denormalized
// profile row. A failed profile insert does not roll the account back:
// by default it is reported as a warning and the sign-up still counts
// as successful; with StrictProfile the error is returned alongside
// the created user.
func (s *Store) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	user, err := s.client.SignUp(ctx, email, password, map[string]string{"name": name})
	if err != nil {
		s.notify.Error(signUpMessage(err))
		return nil, err
	}

	if insertErr := s.profiles.Create(ctx, &model.Profile{ID: user.ID, Name: name, Email: email}); insertErr != nil {
		s.log.Error("profile insert after sign-up failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(insertErr),
		)
		s.notify.Warning(fmt.Sprintf("account created but profile setup failed: %v", insertErr))
		if s.cfg.StrictProfile {
			return user, insertErr
		}
		return user, nil
	}

	s.notify.Success("Account created successfully! Please check your email for verification.")
	return user, nil
}

// SignIn forwards credentials to the platform. State is not written
// here: the platform's own notification updates it, avoiding a race
// between the two paths. On failure nothing is mutated.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if _, err := s.client.SignInWithPassword(ctx, email, password); err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			s.notify.Error("Invalid email or password. Please try again.")
		} else {
			s.notify.Error("An unexpected error occurred during login")
		}
		return err
	}
	s.notify.Success("Logged in successfully!")
	return nil
}

// SignInWithProvider returns the browser redirect URL that starts a
// social-provider handshake. Control leaves the application until the
// platform redirects back with tokens embedded in the URL.
func (s *Store) SignInWithProvider(providerName, redirectTo string) (string, error) {
	u, err := s.client.AuthorizeURL(providerName, redirectTo)
	if err != nil {
		s.notify.Error(fmt.Sprintf("Login with %s failed: %v", providerName, err))
		return "", err
	}
	return u, nil
}

// AdoptSession hands handshake-redirect tokens to the platform client;
// its SIGNED_IN notification updates state.
func (s *Store) AdoptSession(ctx context.Context, accessToken, refreshToken string) error {
	if _, err := s.client.AdoptSession(ctx, accessToken, refreshToken); err != nil {
		s.notify.Error("An unexpected error occurred during login")
		return err
	}
	s.notify.Success("Logged in successfully!")
	return nil
}

// SignOut forwards to the platform; its SIGNED_OUT notification drives
// state to anonymous.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.client.SignOut(ctx); err != nil {
		s.notify.Error(fmt.Sprintf("Sign out failed: %v", err))
		return err
	}
	s.notify.Success("Logged out successfully!")
	return nil
}

// Refresh re-queries the current session and applies it when present.
// Best effort: used when a handshake redirect is detected, so the new
// session is captured promptly instead of waiting for the next
// notification. Correctness never depends on it.
func (s *Store) Refresh(ctx context.Context) {
	sess, err := s.client.CurrentSession(ctx)
	if err != nil {
		s.log.Debug("session refresh probe failed", zap.Error(err))
		return
	}
	if sess != nil {
		s.apply(sess)
	}
}

func signUpMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrAlreadyExists):
		return "An account with this email already exists."
	case errors.Is(err, errs.ErrNotConfigured), errors.Is(err, errs.ErrProviderUnavailable):
		return "An unexpected error occurred during registration"
	default:
		return fmt.Sprintf("Registration failed: %v", err)
	}
}
