package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

const namespace = "vendorroll"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	runDuration   *prom.HistogramVec
	runOutcome    *prom.CounterVec
	fetchDuration *prom.HistogramVec
	vendoredFiles *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"target", "stage"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"target", "stage", "result"})
		pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total vendoring run duration per target",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"target"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"target", "outcome"})
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of clone and checkout",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"target", "result"})
		pr.vendoredFiles = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "vendored_files",
			Help:      "Files written by the last successful run",
		}, []string{"target", "kind"})
		reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcome, pr.fetchDuration, pr.vendoredFiles)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(target, stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(target, stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(target, stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(target, stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(target string, d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(target string, outcome OutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(target, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(target string, d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(target, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetVendoredFiles(target, kind string, n int) {
	if p == nil || p.vendoredFiles == nil {
		return
	}
	p.vendoredFiles.WithLabelValues(target, kind).Set(float64(n))
}

// WriteTextfile writes every metric of reg to path in text exposition format.
// The write goes through a temporary file so scrapers never see partial output.
func WriteTextfile(path string, reg *prom.Registry) error {
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return errors.FileSystemFailure(err, "write metrics textfile").WithContext("path", path).Build()
	}
	return nil
}
