package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/darshan87986/your-account-space/internal/errs"
	"github.com/darshan87986/your-account-space/internal/model"
)

// Config configures the HTTP client. URL and AnonKey come from the
// environment once at startup and are immutable afterwards.
type Config struct {
	URL     string
	AnonKey string
	// HTTPClient overrides the transport (tests). Defaults to a client
	// with a 15s timeout.
	HTTPClient *http.Client
	// RefreshLeeway is how long before expiry a background refresh is
	// attempted. Defaults to 30s.
	RefreshLeeway time.Duration
}

// HTTPClient talks to the platform's auth REST API and keeps the
// current session in memory, refreshing it before expiry and fanning
// out change notifications to subscribers.
type HTTPClient struct {
	base    string
	anonKey string
	hc      *http.Client
	leeway  time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	session *model.Session
	subs    map[int]Callback
	nextSub int
	timer   *time.Timer
}

var _ Client = (*HTTPClient)(nil)

// NewHTTP constructs the platform client.
func NewHTTP(cfg Config, log *zap.Logger) *HTTPClient {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	leeway := cfg.RefreshLeeway
	if leeway <= 0 {
		leeway = 30 * time.Second
	}
	return &HTTPClient{
		base:    strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		hc:      hc,
		leeway:  leeway,
		log:     log,
		subs:    map[int]Callback{},
	}
}

// platformError carries an HTTP-level rejection from the platform.
type platformError struct {
	Status  int
	Message string
}

func (e *platformError) Error() string {
	return fmt.Sprintf("platform: %s (status %d)", e.Message, e.Status)
}

type userJSON struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userJSON) toModel() (*model.User, error) {
	id, err := uuid.FromString(u.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	usr := &model.User{ID: id, Email: u.Email, CreatedAt: u.CreatedAt}
	if name, ok := u.UserMetadata["name"].(string); ok {
		usr.Name = name
	}
	return usr, nil
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	User         userJSON `json:"user"`
}

// CurrentSession returns the held session, refreshing an expired one
// when a refresh token is available. (nil, nil) means no session.
func (c *HTTPClient) CurrentSession(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return nil, nil
	}
	if sess.Expired() {
		if sess.RefreshToken == "" {
			c.clearSession()
			return nil, nil
		}
		return c.refresh(ctx, sess.RefreshToken)
	}
	return sess, nil
}

// OnAuthStateChange registers fn for session-change notifications.
func (c *HTTPClient) OnAuthStateChange(fn Callback) Subscription {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return &httpSubscription{c: c, id: id}
}

type httpSubscription struct {
	c  *HTTPClient
	id int
}

func (s *httpSubscription) Unsubscribe() {
	s.c.mu.Lock()
	delete(s.c.subs, s.id)
	s.c.mu.Unlock()
}

// SignUp creates a platform account. No session is adopted: the
// platform may require email confirmation before the first sign-in.
func (c *HTTPClient) SignUp(ctx context.Context, email, password string, meta map[string]string) (*model.User, error) {
	body := map[string]any{"email": email, "password": password}
	if len(meta) > 0 {
		body["data"] = meta
	}

	// The signup endpoint returns either the bare user or a session
	// wrapping it, depending on the platform's confirmation setting.
	var resp struct {
		userJSON
		User *userJSON `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, "", body, &resp); err != nil {
		var pe *platformError
		if errors.As(err, &pe) &&
			(pe.Status == http.StatusUnprocessableEntity || strings.Contains(strings.ToLower(pe.Message), "already registered")) {
			return nil, fmt.Errorf("%w: %s", errs.ErrAlreadyExists, pe.Message)
		}
		return nil, err
	}

	uj := resp.userJSON
	if resp.User != nil {
		uj = *resp.User
	}
	if uj.ID == "" {
		return nil, errors.New("signup response carries no user")
	}
	return uj.toModel()
}

// SignInWithPassword exchanges credentials for a session and adopts it.
func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	q := url.Values{"grant_type": {"password"}}
	var tr tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, "", map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		return nil, credentialErr(err)
	}
	sess, err := c.buildSession(tr)
	if err != nil {
		return nil, err
	}
	c.setSession(sess, EventSignedIn)
	return sess, nil
}

// AuthorizeURL builds the redirect URL that starts a social handshake.
func (c *HTTPClient) AuthorizeURL(providerName, redirectTo string) (string, error) {
	if c.base == "" || c.anonKey == "" {
		return "", errs.ErrNotConfigured
	}
	if providerName == "" {
		return "", errors.New("provider name required")
	}
	u, err := url.Parse(c.base)
	if err != nil {
		return "", fmt.Errorf("parse platform url: %w", err)
	}
	u = u.JoinPath("/auth/v1/authorize")
	q := url.Values{"provider": {providerName}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AdoptSession validates redirected (or persisted) tokens against the
// platform and adopts the resulting session.
func (c *HTTPClient) AdoptSession(ctx context.Context, accessToken, refreshToken string) (*model.Session, error) {
	if accessToken == "" {
		return nil, errs.ErrNoSession
	}
	var uj userJSON
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &uj); err != nil {
		return nil, credentialErr(err)
	}
	user, err := uj.toModel()
	if err != nil {
		return nil, err
	}
	sess := &model.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiryFromToken(accessToken),
		User:         user,
	}
	c.setSession(sess, EventSignedIn)
	return sess, nil
}

// SignOut revokes the session platform-side and drops it locally.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, sess.AccessToken, nil, nil); err != nil {
		var pe *platformError
		if !errors.As(err, &pe) {
			return err
		}
		// a revoked or already-expired token still means signed out
	}
	c.clearSession()
	return nil
}

// Close stops the background refresh timer.
func (c *HTTPClient) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}

func (c *HTTPClient) refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	var tr tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, "", map[string]string{"refresh_token": refreshToken}, &tr)
	if err != nil {
		var pe *platformError
		if errors.As(err, &pe) {
			// refresh token rejected: the session is gone
			c.log.Info("refresh token rejected", zap.String("msg", pe.Message))
			c.clearSession()
			return nil, nil
		}
		return nil, err
	}
	sess, err := c.buildSession(tr)
	if err != nil {
		return nil, err
	}
	c.setSession(sess, EventTokenRefreshed)
	return sess, nil
}

func (c *HTTPClient) buildSession(tr tokenResponse) (*model.Session, error) {
	user, err := tr.User.toModel()
	if err != nil {
		return nil, err
	}
	exp := time.Now().Add(time.Hour)
	if tr.ExpiresIn > 0 {
		exp = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	} else if t := expiryFromToken(tr.AccessToken); !t.IsZero() {
		exp = t
	}
	tt := tr.TokenType
	if tt == "" {
		tt = "bearer"
	}
	return &model.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tt,
		ExpiresAt:    exp,
		User:         user,
	}, nil
}

// expiryFromToken reads the exp claim without validating the signature;
// token verification belongs to the platform, the claim is only used to
// schedule refresh.
func expiryFromToken(token string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (c *HTTPClient) setSession(sess *model.Session, event Event) {
	c.mu.Lock()
	c.session = sess
	c.scheduleRefreshLocked(sess)
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(event, sess)
	}
}

func (c *HTTPClient) clearSession() {
	c.mu.Lock()
	c.session = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(EventSignedOut, nil)
	}
}

func (c *HTTPClient) snapshotSubsLocked() []Callback {
	subs := make([]Callback, 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (c *HTTPClient) scheduleRefreshLocked(sess *model.Session) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if sess == nil || sess.RefreshToken == "" || sess.ExpiresAt.IsZero() {
		return
	}
	d := time.Until(sess.ExpiresAt) - c.leeway
	if d < time.Second {
		d = time.Second
	}
	c.timer = time.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		c.mu.Lock()
		cur := c.session
		c.mu.Unlock()
		if cur == nil {
			return
		}
		if _, err := c.refresh(ctx, cur.RefreshToken); err != nil {
			c.log.Warn("token refresh failed", zap.Error(err))
		}
	})
}

// credentialErr maps platform 400/401 rejections to ErrInvalidCredentials.
func credentialErr(err error) error {
	var pe *platformError
	if errors.As(err, &pe) && (pe.Status == http.StatusBadRequest || pe.Status == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %s", errs.ErrInvalidCredentials, pe.Message)
	}
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, bearer string, body, out any) error {
	if c.base == "" || c.anonKey == "" {
		return errs.ErrNotConfigured
	}
	u, err := url.Parse(c.base)
	if err != nil {
		return fmt.Errorf("parse platform url: %w", err)
	}
	u = u.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", errs.ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &platformError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func errorMessage(raw []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &e)
	switch {
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Error != "":
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}
