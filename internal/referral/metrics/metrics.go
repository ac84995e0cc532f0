package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	InvitationsCreated  prometheus.Counter
	InvitationsAccepted prometheus.Counter
	InvitationsRejected prometheus.Counter
	InvitationsExpired  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		InvitationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_invitations_created_total",
			Help: "Total number of invitations created",
		}),
		InvitationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_invitations_accepted_total",
			Help: "Total number of invitations accepted",
		}),
		InvitationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_invitations_rejected_total",
			Help: "Total number of invitations rejected",
		}),
		InvitationsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_invitations_expired_total",
			Help: "Total number of invitations lazily expired at read",
		}),
	}
}
