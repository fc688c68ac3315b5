package model

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
)

func TestAuthState_Phase(t *testing.T) {
	t.Parallel()
	u := &User{ID: uuid.Must(uuid.NewV4())}
	s := &Session{AccessToken: "t", User: u}

	cases := []struct {
		name string
		st   AuthState
		want Phase
	}{
		{"initial", AuthState{Loading: true}, Resolving},
		{"loading with session still resolving", AuthState{Loading: true, User: u, Session: s}, Resolving},
		{"resolved empty", AuthState{}, Anonymous},
		{"resolved with session", AuthState{User: u, Session: s}, Authenticated},
	}
	for _, tc := range cases {
		if got := tc.st.Phase(); got != tc.want {
			t.Errorf("%s: Phase() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSession_Expired(t *testing.T) {
	t.Parallel()
	if (&Session{ExpiresAt: time.Now().Add(time.Hour)}).Expired() {
		t.Errorf("future expiry reported as expired")
	}
	if !(&Session{ExpiresAt: time.Now().Add(-time.Second)}).Expired() {
		t.Errorf("past expiry not reported")
	}
	if (&Session{}).Expired() {
		t.Errorf("zero expiry must not count as expired")
	}
}
