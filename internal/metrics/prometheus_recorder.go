package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "binsweep"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	queryDuration *prom.HistogramVec
	unitOutcomes  *prom.CounterVec
	planDirs      prom.Gauge
	planFiles     prom.Gauge
	planBytes     prom.Gauge
	deletions     *prom.CounterVec
	runDuration   prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		queryDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "property_query_duration_seconds",
			Help:      "Duration of individual project property queries",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"result"}),
		unitOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_unit_outcomes_total",
			Help:      "Build units by processing outcome",
		}, []string{"outcome"}),
		planDirs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_directories",
			Help:      "Directories in the deletion plan that hold files",
		}),
		planFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_files",
			Help:      "Files below the planned directories plus loose files",
		}),
		planBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_bytes",
			Help:      "Bytes below the planned directories plus loose files",
		}),
		deletions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Deletion attempts by target and result",
		}, []string{"target", "result"}),
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
	reg.MustRegister(pr.queryDuration, pr.unitOutcomes, pr.planDirs, pr.planFiles, pr.planBytes, pr.deletions, pr.runDuration)
	return pr
}

// Registry returns the registry the metrics live in.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.reg
}

func (p *PrometheusRecorder) ObserveQueryDuration(d time.Duration, success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.queryDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUnitOutcome(outcome UnitOutcome) {
	p.unitOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPlanTotals(directories, files int, bytes int64) {
	p.planDirs.Set(float64(directories))
	p.planFiles.Set(float64(files))
	p.planBytes.Set(float64(bytes))
}

func (p *PrometheusRecorder) IncDeletion(target Target, result ResultLabel) {
	p.deletions.WithLabelValues(string(target), string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Set(d.Seconds())
}

// WriteTextfile writes the current values in the text exposition format,
// atomically, for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
