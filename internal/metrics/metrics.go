package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MutationsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_applied_total",
		Help: "Cart mutations reconciled against the backend, by kind.",
	}, []string{"kind"})

	StaleRepliesDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_stale_replies_discarded_total",
		Help: "Backend replies discarded because a newer mutation superseded them.",
	})

	MutationRollbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_mutation_rollbacks_total",
		Help: "Optimistic mutations rolled back after a backend failure.",
	})

	LoadsSuperseded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_loads_superseded_total",
		Help: "Cart load responses discarded because a newer load replaced them.",
	})

	OrdersSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_submitted_total",
		Help: "Orders accepted by the order endpoint.",
	})

	PaymentConfirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmation outcomes, by result.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		MutationsApplied,
		StaleRepliesDiscarded,
		MutationRollbacks,
		LoadsSuperseded,
		OrdersSubmitted,
		PaymentConfirmations,
	)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
