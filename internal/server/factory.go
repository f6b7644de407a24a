package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joliest/shopify-install-proxy/internal/config"
	"github.com/joliest/shopify-install-proxy/internal/issuer"
	"github.com/joliest/shopify-install-proxy/internal/shopify"
	"github.com/joliest/shopify-install-proxy/internal/store"
)

func New(conf *config.Config, sh shopify.Interface, st store.Store) *http.Server {
	iss := issuer.New(conf.Shopify.APISecret, conf.Store.NonceTTL)
	m := newAPIMetrics(prometheus.DefaultRegisterer)
	api := newAPI(conf, sh, st, iss, m, time.Now)
	return newServer(conf, api, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}
