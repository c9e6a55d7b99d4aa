package poller

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_poller_fetches_total",
			Help: "Session fetches issued by pollers",
		},
		[]string{"result"},
	)
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_poller_transitions_total",
			Help: "Terminal outcomes dispatched by pollers",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(fetchesTotal)
	prometheus.MustRegister(transitionsTotal)
}
