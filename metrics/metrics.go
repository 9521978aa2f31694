package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "defi_subgraphs"

var (
	EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "events_handled_total",
		Help:      "Total number of decoded events handled, by event type",
	}, []string{"event"})

	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "handler_errors_total",
		Help:      "Total number of handler failures, by event type",
	}, []string{"event"})

	HeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "head_block_number",
		Help:      "Last block fully processed and flushed",
	})

	EntitiesFlushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "entities_flushed_total",
		Help:      "Total number of entity writes flushed to the store, by table",
	}, []string{"table"})

	OracleLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pricing",
		Name:      "oracle_lookups_total",
		Help:      "Price lookups per oracle, by outcome (hit, reverted, error)",
	}, []string{"oracle", "outcome"})

	MonitorAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "alerts",
		Help:      "Number of alerts raised by the last monitor pass",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
