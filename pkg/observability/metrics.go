// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics collects in-process counters, gauges and timings for one run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// Counter adds value to the named counter.
func (m *Metrics) Counter(name string, value float64, labels map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, labels)] += value
}

// Gauge sets the named gauge.
func (m *Metrics) Gauge(name string, value float64, labels map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey(name, labels)] = value
}

// Timing records one duration sample.
func (m *Metrics) Timing(name string, d time.Duration, labels map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricKey(name, labels)
	m.timings[key] = append(m.timings[key], d)
}

// CounterGet returns the sum of the named counter over all label sets.
func (m *Metrics) CounterGet(name string) float64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for key, v := range m.counters {
		if key == name || strings.HasPrefix(key, name+".") {
			total += v
		}
	}
	return total
}

// GetAverageDuration averages all samples of the named timing.
func (m *Metrics) GetAverageDuration(name string) time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		sum time.Duration
		n   int
	)
	for key, samples := range m.timings {
		if key != name && !strings.HasPrefix(key, name+".") {
			continue
		}
		for _, d := range samples {
			sum += d
		}
		n += len(samples)
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

// GetSnapshot returns every value keyed "kind.name.label:value".
// Timings report their average in milliseconds.
func (m *Metrics) GetSnapshot() map[string]float64 {
	out := make(map[string]float64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.counters {
		out["counter."+k] = v
	}
	for k, v := range m.gauges {
		out["gauge."+k] = v
	}
	for k, samples := range m.timings {
		var sum time.Duration
		for _, d := range samples {
			sum += d
		}
		out["timing."+k] = float64(sum.Microseconds()) / float64(len(samples)) / 1000
	}
	return out
}

// Fields renders the snapshot as sorted log fields.
func (m *Metrics) Fields() []Field {
	snap := m.GetSnapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Key: k, Value: snap[k]}
	}
	return fields
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString("." + k + ":" + labels[k])
	}
	return b.String()
}
