// Package observability tests
package observability

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestCounter(t *testing.T) {
	m := NewMetrics()
	labels := map[string]string{"section": "full_diff"}

	m.Counter("sections", 1.0, labels)
	if val := m.CounterGet("sections"); val != 1.0 {
		t.Errorf("Expected counter value 1.0, got %f", val)
	}

	m.Counter("sections", 2.0, map[string]string{"section": "ci_logs"})
	if val := m.CounterGet("sections"); val != 3.0 {
		t.Errorf("Expected counter value 3.0, got %f", val)
	}

	if val := m.CounterGet("section"); val != 0 {
		t.Errorf("Prefix of another name must not match, got %f", val)
	}
}

func TestGauge(t *testing.T) {
	m := NewMetrics()
	labels := map[string]string{"env": "test"}

	m.Gauge("test_gauge", 41.0, labels)
	m.Gauge("test_gauge", 42.0, labels)

	snapshot := m.GetSnapshot()
	key := "gauge.test_gauge.env:test"
	if val, ok := snapshot[key]; !ok {
		t.Errorf("Gauge not found in snapshot: %s", key)
	} else if val != 42.0 {
		t.Errorf("Expected gauge value 42.0, got %v", val)
	}
}

func TestLabelOrder(t *testing.T) {
	m := NewMetrics()
	m.Counter("c", 1, map[string]string{"b": "2", "a": "1"})

	if _, ok := m.GetSnapshot()["counter.c.a:1.b:2"]; !ok {
		t.Errorf("labels should be sorted, got %v", m.GetSnapshot())
	}
}

func TestTiming(t *testing.T) {
	m := NewMetrics()
	m.Timing("pack", 100*time.Millisecond, nil)
	m.Timing("pack", 200*time.Millisecond, nil)

	if avg := m.GetAverageDuration("pack"); avg != 150*time.Millisecond {
		t.Errorf("Expected average 150ms, got %v", avg)
	}
	if val := m.GetSnapshot()["timing.pack"]; val != 150 {
		t.Errorf("Expected snapshot 150, got %v", val)
	}
	if avg := m.GetAverageDuration("missing"); avg != 0 {
		t.Errorf("Expected 0 for unknown timing, got %v", avg)
	}
}

func TestFields(t *testing.T) {
	m := NewMetrics()
	m.Gauge("tokens", 10, nil)
	m.Counter("sections", 2, nil)

	fields := m.Fields()
	if len(fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "counter.sections" || fields[1].Key != "gauge.tokens" {
		t.Errorf("Fields not sorted: %v", fields)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Counter("c", 1, nil)
	m.Gauge("g", 1, nil)
	m.Timing("t", time.Second, nil)

	if m.CounterGet("c") != 0 || len(m.GetSnapshot()) != 0 || len(m.Fields()) != 0 {
		t.Error("nil metrics should record nothing")
	}
}

func TestMetricsConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Counter("hits", 1, nil)
		}()
	}
	wg.Wait()

	if val := m.CounterGet("hits"); val != 50 {
		t.Errorf("Expected 50, got %v", val)
	}
}
