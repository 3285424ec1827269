package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	gauges     []call
	flushCount int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) SetGauge(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges = append(f.gauges, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	r := NewRecorder("vendor_summary", fb)

	r.RecordStep("aggregate", nil, 2*time.Second)
	r.RecordStep("persist", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2 and 2", len(fb.counters), len(fb.histograms))
	}

	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.value != 1 {
		t.Fatalf("counter[0] = %#v; want %s delta 1", c0, StepTotal)
	}
	if c0.labels["job"] != "vendor_summary" || c0.labels["step"] != "aggregate" || c0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels = %v", c0.labels)
	}
	if h := fb.histograms[0]; h.name != StepDuration || h.value < 1.999 || h.value > 2.001 {
		t.Fatalf("hist[0] = %#v; want %s ~2.0", h, StepDuration)
	}

	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1] status = %q, want failure", got)
	}
	if h := fb.histograms[1]; h.value < 1.499 || h.value > 1.501 {
		t.Fatalf("hist[1].value = %v; want ~1.5", h.value)
	}
}

func TestRecordRows_EmitsZeroIgnoresNegative(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	r := NewRecorder("j", fb)

	r.RecordRows("merged", 3)
	r.RecordRows("skipped_sales", 0)
	r.RecordRows("persisted", -1)

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}
	c := fb.counters[0]
	if c.name != RecordsTotal || c.value != 3 || c.labels["kind"] != "merged" || c.labels["job"] != "j" {
		t.Fatalf("counter = %#v", c)
	}
	z := fb.counters[1]
	if z.name != RecordsTotal || z.value != 0 || z.labels["kind"] != "skipped_sales" {
		t.Fatalf("zero counter = %#v", z)
	}
}

func TestRecordSuccess(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	r := NewRecorder("j", fb)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	r.RecordSuccess(42)

	if len(fb.gauges) != 2 {
		t.Fatalf("gauges = %d, want 2", len(fb.gauges))
	}
	if g := fb.gauges[0]; g.name != OutputRows || g.value != 42 {
		t.Fatalf("gauge[0] = %#v", g)
	}
	if g := fb.gauges[1]; g.name != LastSuccessTime || g.value != 1700000000 {
		t.Fatalf("gauge[1] = %#v", g)
	}
}

func TestNilBackendIsNop(t *testing.T) {
	t.Parallel()

	r := NewRecorder("j", nil)
	r.RecordStep("merge", nil, time.Millisecond)
	r.RecordRows("merged", 1)
	r.RecordSuccess(1)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush = %v", err)
	}
}

func TestFlushDelegates(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	if err := NewRecorder("j", fb).Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1", fb.flushCount)
	}
}
