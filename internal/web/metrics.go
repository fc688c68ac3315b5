package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signInAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_sign_in_attempts_total",
		Help: "Password sign-in attempts by result.",
	}, []string{"result"})

	signUpAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_sign_up_attempts_total",
		Help: "Sign-up attempts by result.",
	}, []string{"result"})
)
