package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between services and HTTP packages.

var (
	ChallengesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_challenges_issued_total",
		Help: "Challenges emitidos (register + challenge endpoints)",
	})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Intentos de login por resultado",
	}, []string{"result"}) // ok | invalid | suspended

	RefreshRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_rotations_total",
		Help: "Rotaciones de refresh token exitosas",
	})

	ReuseDetections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_reuse_detections_total",
		Help: "Presentaciones de un refresh token ya revocado (familia revocada)",
	})

	FamiliesRevoked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_token_families_revoked_total",
		Help: "Familias completas revocadas por detección de reuso",
	})
)

// Register registers the auth metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		ChallengesIssued,
		LoginsTotal,
		RefreshRotations,
		ReuseDetections,
		FamiliesRevoked,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
