/*
Internal metrics (C9 introspection backing). These counters are never
exposed over HTTP — there is no metrics endpoint in scope — they exist
purely to feed INFO's stats section with real numbers instead of
placeholders, grounded on packetd's use of prometheus/client_golang
for in-process counters.
*/
package redshard

import (
	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// serverMetrics holds the process-local counters/gauges surfaced by
// INFO. They are deliberately unregistered from any global registry
// since nothing in this server exposes a /metrics endpoint.
type serverMetrics struct {
	commandsProcessed prometheus.Counter
	connectedClients  prometheus.Gauge
	expiredKeys       prometheus.Counter
	keyspaceHits      prometheus.Counter
	keyspaceMisses    prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{
		commandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redshard_commands_processed_total",
			Help: "Total number of commands dispatched.",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "redshard_connected_clients",
			Help: "Current number of connected clients.",
		}),
		expiredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redshard_expired_keys_total",
			Help: "Total number of keys lazily expired.",
		}),
		keyspaceHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redshard_keyspace_hits_total",
			Help: "Total number of successful key lookups.",
		}),
		keyspaceMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redshard_keyspace_misses_total",
			Help: "Total number of failed key lookups.",
		}),
	}
}

func (m *serverMetrics) snapshot() (commands, clients, expired, hits, misses float64) {
	return readMetric(m.commandsProcessed), readMetric(m.connectedClients),
		readMetric(m.expiredKeys), readMetric(m.keyspaceHits), readMetric(m.keyspaceMisses)
}

// readMetric extracts the current numeric value of a counter or gauge
// via its protobuf Write method — the same path the exposition format
// uses, just without the formatting step, since there is no HTTP
// endpoint here to format for.
func readMetric(c prometheus.Metric) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	return 0
}

// newRunID returns a fresh, random identifier reported by INFO's
// run_id field (C9), distinguishing restarts of the same instance.
func newRunID() string {
	return uuid.New().String()
}
