package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queueItems = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "versemark_sync_queue_items_total",
	Help: "Sync queue items replayed against the remote store",
}, []string{"op", "outcome"})

var syncPasses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "versemark_sync_passes_total",
	Help: "Completed sync queue drain passes",
})
