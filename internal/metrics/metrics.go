// Package metrics exports decoded component state and decoder activity in
// the Prometheus text format.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/eses"
)

// Exporter holds the esesgod metrics on a private registry. It implements
// eses.Observer.
type Exporter struct {
	reg *prometheus.Registry

	attr       *prometheus.GaugeVec
	passes     *prometheus.CounterVec
	changes    *prometheus.CounterVec
	duration   *prometheus.GaugeVec
	lastPass   *prometheus.GaugeVec
	insertions *prometheus.CounterVec
	decisions  *prometheus.CounterVec
}

func New() *Exporter {
	// The default registry carries process metrics, which collide when
	// more than one textfile exporter runs on a host.
	reg := prometheus.NewRegistry()

	deviceLabels := []string{"device"}
	e := &Exporter{
		reg: reg,
		attr: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esesgod_component_attribute",
			Help: "Decoded attribute value per enclosure component. Booleans are 0 or 1.",
		}, []string{"device", "component", "index", "attribute"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esesgod_decode_passes_total",
			Help: "Status page decode passes by result.",
		}, []string{"device", "result"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esesgod_attribute_changes_total",
			Help: "Attribute changes written by decode passes.",
		}, deviceLabels),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esesgod_decode_duration_seconds",
			Help: "Duration of the last decode pass.",
		}, deviceLabels),
		lastPass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esesgod_last_decode_timestamp_seconds",
			Help: "Start time of the last decode pass.",
		}, deviceLabels),
		insertions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esesgod_slot_insert_changes_total",
			Help: "Drive slots whose inserted state changed.",
		}, deviceLabels),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esesgod_retry_decisions_total",
			Help: "Command completion decisions by opcode, result and action.",
		}, []string{"opcode", "result", "action"}),
	}
	reg.MustRegister(e.attr, e.passes, e.changes, e.duration, e.lastPass, e.insertions, e.decisions)
	return e
}

// Registry returns the private registry, e.g. for an HTTP handler.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

func (e *Exporter) ObservePass(res *eses.PassResult) {
	result := "ok"
	if res.Error != "" {
		result = "error"
	}
	e.passes.WithLabelValues(res.Device, result).Inc()
	e.changes.WithLabelValues(res.Device).Add(float64(len(res.Changes)))
	e.duration.WithLabelValues(res.Device).Set(res.Duration.Seconds())
	e.lastPass.WithLabelValues(res.Device).Set(float64(res.Started.Unix()))

	n := 0
	for m := res.InsertChanges; m != 0; m &= m - 1 {
		n++
	}
	e.insertions.WithLabelValues(res.Device).Add(float64(n))
}

func (e *Exporter) ObserveDecision(op eses.Opcode, d eses.Decision) {
	e.decisions.WithLabelValues(op.String(), d.Result.String(), d.Action.String()).Inc()
}

// UpdateComponents replaces the attribute gauges of device with the
// snapshot.
func (e *Exporter) UpdateComponents(device string, comps []edal.Component) {
	e.attr.DeletePartialMatch(prometheus.Labels{"device": device})
	for _, c := range comps {
		idx := strconv.Itoa(c.Index)
		for name, v := range c.Attrs {
			f, ok := gaugeValue(v)
			if !ok {
				continue
			}
			e.attr.WithLabelValues(device, c.Type, idx, name).Set(f)
		}
	}
}

func gaugeValue(v any) (float64, bool) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case uint8:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// WriteTextfile writes every metric to path for the node exporter's
// textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.reg)
}
