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

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	t.Cleanup(func() { SetBackend(orig) })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordRule_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordRule("invoice", "Items", "table", 3, nil, 2*time.Second)
	RecordRule("invoice", "Total", "", 0, errors.New("boom"), 1500*time.Millisecond)

	// rule total x2, rows x1
	if len(fb.callsCounters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	c0 := fb.callsCounters[0]
	if c0.name != RuleTotal || c0.delta != 1 || c0.labels["status"] != "success" || c0.labels["rule"] != "Items" {
		t.Fatalf("counter[0] = %#v", c0)
	}
	rows := fb.callsCounters[1]
	if rows.name != RowsTotal || rows.delta != 3 || rows.labels["mode"] != "table" {
		t.Fatalf("counter[1] = %#v", rows)
	}
	fail := fb.callsCounters[2]
	if fail.name != RuleTotal || fail.labels["status"] != "failure" {
		t.Fatalf("counter[2] = %#v", fail)
	}

	h0 := fb.callsHistograms[0]
	if h0.name != RuleDurationSeconds || h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0] = %#v", h0)
	}
}

func TestRecordStepAndRoute(t *testing.T) {
	fb := install(t)

	RecordStep("TrimAll", nil)
	RecordStep("RegexExtract", errors.New("bad"))
	RecordRoute("owner", "target", "default")

	if len(fb.callsCounters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.callsCounters))
	}
	if c := fb.callsCounters[1]; c.name != StepTotal || c.labels["kind"] != "RegexExtract" || c.labels["status"] != "failure" {
		t.Fatalf("counter[1] = %#v", c)
	}
	if c := fb.callsCounters[2]; c.name != RouteTotal || c.labels["outcome"] != "default" || c.labels["target"] != "target" {
		t.Fatalf("counter[2] = %#v", c)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if current() != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
