// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbot_lookups_total",
			Help: "Total number of stock lookups by reply kind",
		},
		[]string{"kind"},
	)

	MessagesIgnored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbot_messages_ignored_total",
			Help: "Total number of inbound messages ignored by reason",
		},
		[]string{"reason"},
	)

	RepliesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockbot_replies_failed_total",
			Help: "Total number of replies that could not be sent",
		},
	)

	ReconnectsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockbot_reconnects_scheduled_total",
			Help: "Total number of reconnect attempts scheduled after a transport drop",
		},
	)

	SessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockbot_session_state",
			Help: "1 for the current session state, 0 for the others",
		},
		[]string{"state"},
	)

	CatalogRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockbot_catalog_records",
			Help: "Number of product records in the current catalog snapshot",
		},
	)

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbot_catalog_loads_total",
			Help: "Total number of catalog loads by result",
		},
		[]string{"result"},
	)
)
