// Package metrics records vendoring run metrics.
//
// Components receive a Recorder through injection. NoopRecorder is the default
// and does nothing; PrometheusRecorder registers its collectors on a private
// registry that the roll command can dump in text exposition format for the
// node-exporter textfile collector:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	driver := pipeline.NewDriver(cfg, pipeline.WithRecorder(rec))
//	...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
