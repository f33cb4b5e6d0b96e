// Package metrics exposes counters for the security events the session engine
// emits. Counters only; request-level instrumentation lives at the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ems_auth_login_success_total",
		Help: "Successful password authentications.",
	})

	LoginFailure = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ems_auth_login_failure_total",
		Help: "Rejected authentication attempts by reason.",
	}, []string{"reason"})

	Lockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ems_auth_lockouts_total",
		Help: "Accounts locked after repeated password failures.",
	})

	TokenRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ems_auth_token_rotations_total",
		Help: "Successful refresh token rotations.",
	})

	ReuseDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ems_auth_token_reuse_detected_total",
		Help: "Consumed refresh tokens presented again, triggering session teardown.",
	})
)
