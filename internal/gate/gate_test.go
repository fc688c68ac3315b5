package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/darshan87986/your-account-space/internal/model"
)

type fakeSource struct {
	mu       sync.Mutex
	st       model.AuthState
	refreshCh chan struct{}
}

func (f *fakeSource) State() model.AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeSource) Refresh(context.Context) {
	if f.refreshCh != nil {
		f.refreshCh <- struct{}{}
	}
}

func authedState() model.AuthState {
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Email: "a@b.com"}
	return model.AuthState{User: u, Session: &model.Session{AccessToken: "t", User: u}}
}

func TestDecide(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		st   model.AuthState
		want Decision
	}{
		{"loading wins over everything", model.AuthState{Loading: true}, ShowLoading},
		{"loading wins even with user present", func() model.AuthState {
			st := authedState()
			st.Loading = true
			return st
		}(), ShowLoading},
		{"no user redirects", model.AuthState{}, RedirectToLogin},
		{"user renders", authedState(), RenderContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Decide(tc.st))
		})
	}
}

func TestDecide_NeverRendersWithoutSession(t *testing.T) {
	t.Parallel()
	// startup resolved to "no session": only a redirect is acceptable
	st := model.AuthState{Loading: false}
	require.Equal(t, RedirectToLogin, Decide(st))
	require.NotEqual(t, RenderContent, Decide(st))
}

func TestHasRedirectToken(t *testing.T) {
	t.Parallel()
	require.True(t, HasRedirectToken("http://localhost:8080/#access_token=abc&token_type=bearer"))
	require.True(t, HasRedirectToken("http://localhost:8080/?access_token=abc"))
	require.False(t, HasRedirectToken("http://localhost:8080/"))
	require.False(t, HasRedirectToken("http://localhost:8080/#state=xyz"))
	require.False(t, HasRedirectToken("://not-a-url"))
}

func TestProtect_Loading(t *testing.T) {
	t.Parallel()
	src := &fakeSource{st: model.AuthState{Loading: true}}
	h := Protect(src, "/login")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("protected handler must not run while loading")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Loading")
}

func TestProtect_Anonymous_Redirects(t *testing.T) {
	t.Parallel()
	src := &fakeSource{st: model.AuthState{}}
	h := Protect(src, "/login")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("protected handler must not run for anonymous visitors")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestProtect_Authenticated_InjectsUser(t *testing.T) {
	t.Parallel()
	st := authedState()
	src := &fakeSource{st: st}

	var seen *model.User
	h := Protect(src, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromCtx(r.Context())
		require.True(t, ok)
		seen = u
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, st.User.ID, seen.ID)
}

func TestProtect_RedirectMarker_TriggersRefresh(t *testing.T) {
	t.Parallel()
	src := &fakeSource{st: authedState(), refreshCh: make(chan struct{}, 1)}
	h := Protect(src, "/login")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?access_token=abc", nil))

	select {
	case <-src.refreshCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("marker did not trigger a session probe")
	}
}
