// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/morganforge/scmlite-tui/internal/api"
)

// Device ID range served by the simulated fleet.
const (
	DeviceIDMin = 1150
	DeviceIDMax = 1158
)

var routes = []string{
	"Newyork,USA",
	"Chennai, India",
	"Bengaluru, India",
	"London,UK",
}

// Feed synthesizes device telemetry into a bounded in-memory buffer.
// Samples match the production simulator: battery 2.00-5.00 V, sensor
// temperature 10.0-40.0 °C, random distinct route pairs, device IDs
// 1150-1158.
type Feed struct {
	mu      sync.Mutex
	records []api.DeviceRecord
	cap     int
	rng     *rand.Rand
	now     func() time.Time
}

// NewFeed creates a feed retaining at most capacity samples.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 200
	}
	return &Feed{
		cap: capacity,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Run emits one sample per interval until the context is canceled.
func (f *Feed) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Emit()
		}
	}
}

// Emit appends one synthesized sample.
func (f *Feed) Emit() api.DeviceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	from := routes[f.rng.Intn(len(routes))]
	to := routes[f.rng.Intn(len(routes))]
	for to == from {
		to = routes[f.rng.Intn(len(routes))]
	}

	rec := api.DeviceRecord{
		DeviceID:          DeviceIDMin + f.rng.Intn(DeviceIDMax-DeviceIDMin+1),
		BatteryLevel:      round2(2.00 + f.rng.Float64()*3.00),
		SensorTemperature: round1(10.0 + f.rng.Float64()*30.0),
		RouteFrom:         from,
		RouteTo:           to,
		Timestamp:         f.now().Unix(),
	}

	f.records = append(f.records, rec)
	if len(f.records) > f.cap {
		f.records = f.records[len(f.records)-f.cap:]
	}
	return rec
}

// Fill emits n samples immediately so a fresh server has data to serve.
func (f *Feed) Fill(n int) {
	for i := 0; i < n; i++ {
		f.Emit()
	}
}

// Latest returns up to limit samples, newest first.
func (f *Feed) Latest(limit int) []api.DeviceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.records)
	if limit > n {
		limit = n
	}

	out := make([]api.DeviceRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, f.records[i])
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
