// Package metrics records operational metrics for a vendor summary run.
//
// A Recorder forwards to a Backend: no-op by default, or one of the
// subpackages (prompush for a Prometheus Pushgateway, datadog for
// DogStatsD). The run depends only on Recorder, so the concrete metric
// system stays out of the pipeline code.
package metrics

import "time"

// Metric names shared by all backends.
const (
	StepTotal       = "etl_step_total"
	StepDuration    = "etl_step_duration_seconds"
	RecordsTotal    = "etl_records_total"
	OutputRows      = "etl_output_rows"
	LastSuccessTime = "etl_last_success_timestamp_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface a metrics system has to implement.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets a point-in-time value.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics, if the backend needs it.
	Flush() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) SetGauge(string, float64, Labels)         {}
func (Nop) Flush() error                             { return nil }

// Recorder attaches the job label and records run-level metrics.
type Recorder struct {
	job     string
	backend Backend
	now     func() time.Time
}

// NewRecorder returns a Recorder for job. A nil backend records nothing.
func NewRecorder(job string, b Backend) *Recorder {
	if b == nil {
		b = Nop{}
	}
	return &Recorder{job: job, backend: b, now: time.Now}
}

// RecordStep counts one execution of a pipeline stage and its duration,
// labelled success or failure by err.
func (r *Recorder) RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": r.job, "step": step, "status": status}
	r.backend.IncCounter(StepTotal, 1, lbls)
	r.backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the record counter of the given kind, e.g.
// "purchase_groups", "merged", "persisted" or "skipped_sales". A zero delta
// is still emitted so the series exists on clean and empty runs; negative
// deltas are ignored.
func (r *Recorder) RecordRows(kind string, delta int64) {
	if delta < 0 {
		return
	}
	r.backend.IncCounter(RecordsTotal, float64(delta), Labels{"job": r.job, "kind": kind})
}

// RecordSuccess marks a completed run and the size of what it wrote.
func (r *Recorder) RecordSuccess(rows int64) {
	lbls := Labels{"job": r.job}
	r.backend.SetGauge(OutputRows, float64(rows), lbls)
	r.backend.SetGauge(LastSuccessTime, float64(r.now().Unix()), lbls)
}

// Flush delegates to the backend.
func (r *Recorder) Flush() error {
	return r.backend.Flush()
}
