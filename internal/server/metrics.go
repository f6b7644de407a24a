package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type apiMetrics struct {
	installs  *prometheus.CounterVec
	exchanges *prometheus.CounterVec
}

func newAPIMetrics(reg prometheus.Registerer) *apiMetrics {
	m := &apiMetrics{
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_installs_total",
			Help: "Install callbacks handled, by outcome",
		}, []string{"outcome"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_token_exchanges_total",
			Help: "Authorization code exchanges, by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.installs, m.exchanges)
	return m
}
