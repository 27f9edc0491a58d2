package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for logins, logouts and user creation.
type Metrics struct {
	// Login attempts by result: success, invalid_credentials, error
	LoginAttempts *prometheus.CounterVec

	TokensRevoked prometheus.Counter
	UsersCreated  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastro_auth_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cadastro_auth_tokens_revoked_total",
			Help: "Access tokens revoked through logout",
		}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cadastro_auth_users_created_total",
			Help: "Total number of users created in the system",
		}),
	}
}

func (m *Metrics) IncrementLogin(result string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementTokensRevoked() {
	if m != nil {
		m.TokensRevoked.Inc()
	}
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}
