package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "versemark_gateway_requests_total",
	Help: "Intercepted requests by resource class",
}, []string{"class"})

var cacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "versemark_gateway_cache_events_total",
	Help: "Cache outcomes per resource class",
}, []string{"class", "outcome"})
