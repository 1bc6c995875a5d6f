package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	memberauth "github.com/clubware/go-memberauth"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberauth_login_attempts_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberauth_registrations_total",
		Help: "Total number of profile registrations",
	})

	Activations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberauth_activations_total",
		Help: "Total number of profile activations",
	})

	PasswordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberauth_password_resets_total",
		Help: "Total number of password reset operations",
	}, []string{"stage"})

	TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberauth_token_refreshes_total",
		Help: "Total number of session token refreshes",
	})

	FactBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberauth_fact_broadcasts_total",
		Help: "Total number of daily fact broadcast runs",
	})
)

// Sink maps activity events onto prometheus counters
type Sink struct{}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Record(_ context.Context, event memberauth.ActivityEvent) error {
	switch event.EventType {
	case memberauth.ActivityEventLoginSuccess:
		LoginAttempts.WithLabelValues("success").Inc()
	case memberauth.ActivityEventLoginFailure:
		LoginAttempts.WithLabelValues("failure").Inc()
	case memberauth.ActivityEventProfileRegistered:
		Registrations.Inc()
	case memberauth.ActivityEventProfileActivated:
		Activations.Inc()
	case memberauth.ActivityEventPasswordResetRequested:
		PasswordResets.WithLabelValues("requested").Inc()
	case memberauth.ActivityEventPasswordResetSuccess:
		PasswordResets.WithLabelValues("completed").Inc()
	case memberauth.ActivityEventTokenRefreshed:
		TokenRefreshes.Inc()
	case memberauth.ActivityEventFactBroadcast:
		FactBroadcasts.Inc()
	}
	return nil
}

var _ memberauth.ActivitySink = (*Sink)(nil)
