package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	IdentitiesRegistered prometheus.Counter
	WalletsLinked        prometheus.Counter
	WalletsUnlinked      prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		IdentitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_identities_registered_total",
			Help: "Total number of identities registered",
		}),
		WalletsLinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_wallets_linked_total",
			Help: "Total number of wallets linked",
		}),
		WalletsUnlinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_wallets_unlinked_total",
			Help: "Total number of wallets unlinked",
		}),
	}
}
