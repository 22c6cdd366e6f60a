// Package metrics exposes slideboard's Prometheus instruments.
//
// A Recorder owns its own registry so several can coexist in one process
// (tests, embedded servers). It satisfies engine.Observer,
// persist.WriteObserver and preview.Observer.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slideboard"

// Recorder collects engine, persistence and preview metrics.
type Recorder struct {
	registry *prometheus.Registry

	actions       *prometheus.CounterVec
	persistWrites *prometheus.CounterVec
	persistBytes  prometheus.Gauge
	previewOps    *prometheus.CounterVec
	wsClients     prometheus.Gauge
}

// New returns a Recorder with a fresh registry, including Go runtime
// collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions dispatched to the store, by kind and whether they changed state.",
		}, []string{"kind", "changed"}),
		persistWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "State slot writes, by result.",
		}, []string{"result"}),
		persistBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persist_last_write_bytes",
			Help:      "Size of the last successfully written state document.",
		}),
		previewOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_operations_total",
			Help:      "Preview store operations, by operation.",
		}, []string{"op"}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected change-feed clients.",
		}),
	}
}

// ObserveAction implements engine.Observer.
func (r *Recorder) ObserveAction(kind string, changed bool) {
	r.actions.WithLabelValues(kind, strconv.FormatBool(changed)).Inc()
}

// ObservePersist implements persist.WriteObserver.
func (r *Recorder) ObservePersist(ok bool, bytes int) {
	if !ok {
		r.persistWrites.WithLabelValues("error").Inc()
		return
	}
	r.persistWrites.WithLabelValues("ok").Inc()
	r.persistBytes.Set(float64(bytes))
}

// ObservePreview implements preview.Observer.
func (r *Recorder) ObservePreview(op string) {
	r.previewOps.WithLabelValues(op).Inc()
}

// ClientConnected and ClientDisconnected track change-feed subscribers.
func (r *Recorder) ClientConnected()    { r.wsClients.Inc() }
func (r *Recorder) ClientDisconnected() { r.wsClients.Dec() }

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
