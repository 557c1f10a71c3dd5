package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grouptrip_votes_cast_total",
		Help: "Ranked votes created or updated.",
	})

	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grouptrip_payment_transitions_total",
		Help: "Payment row status transitions by resulting status.",
	}, []string{"status"})

	BookingsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grouptrip_bookings_finalized_total",
		Help: "Booking sessions finalized.",
	})
)
