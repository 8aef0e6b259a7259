// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/poll"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

func TestDeviceChoices(t *testing.T) {
	choices := deviceChoices()

	if choices[0] != poll.SelectionAll {
		t.Errorf("first choice = %q, want %q", choices[0], poll.SelectionAll)
	}
	if len(choices) != 10 {
		t.Errorf("len(choices) = %d, want 10", len(choices))
	}
	if choices[1] != "1150" || choices[9] != "1158" {
		t.Errorf("device range = %q..%q, want 1150..1158", choices[1], choices[9])
	}
}

func TestTelemetryTableShowsFormattedReadings(t *testing.T) {
	m := telemetryModel{
		theme:   styles.NewTheme(),
		choices: deviceChoices(),
		hasData: true,
		rows: []api.DeviceRecord{
			{
				DeviceID:          1153,
				BatteryLevel:      3.7,
				SensorTemperature: 23.45,
				RouteFrom:         "Chennai, India",
				RouteTo:           "London,UK",
				Timestamp:         1700000000,
			},
		},
	}

	out := m.tableView()
	for _, want := range []string{"1153", "3.70 V", "23.5 °C", "Chennai, India", "London,UK"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestTelemetryTablePlaceholderWhenCleared(t *testing.T) {
	m := newTelemetryModel(styles.NewTheme(), defaultKeyMap(), poll.New(nopGuard{}, nopSource{}, nopSink{}, 0, nil))

	updated, _ := m.Update(telemetryMsg{records: []api.DeviceRecord{{DeviceID: 1150}}, selection: "1150"})
	if !updated.hasData {
		t.Fatal("expected data after telemetry message")
	}

	updated, _ = updated.Update(telemetryClearMsg{})
	if updated.hasData {
		t.Fatal("expected cleared table after clear message")
	}
	if !strings.Contains(updated.tableView(), "no data yet") {
		t.Error("expected placeholder after clear")
	}
}

func TestIdleSelectionChangeClearsStaleRows(t *testing.T) {
	sink := &clearCountSink{}
	engine := poll.New(nopGuard{}, nopSource{}, sink, 0, nil)
	m := newTelemetryModel(styles.NewTheme(), defaultKeyMap(), engine)

	// A batch arrives, then the cycle goes idle (view exit, guard
	// teardown). The old device's rows are still on screen.
	updated, _ := m.Update(telemetryMsg{records: []api.DeviceRecord{{DeviceID: 1150}}, selection: "1150"})
	engine.Stop()
	if engine.Active() {
		t.Fatal("engine should be idle")
	}

	// Moving the selector must blank the display even with no live
	// cycle; stale rows must never sit under the new highlight.
	updated.moveCursor(1)
	if got := sink.clears(); got != 1 {
		t.Fatalf("sink.Clear calls = %d, want 1", got)
	}
	if got := engine.Selection(); got != updated.choices[updated.cursor] {
		t.Errorf("engine selection = %q, want %q", got, updated.choices[updated.cursor])
	}

	updated, _ = updated.Update(telemetryClearMsg{})
	if updated.hasData || len(updated.rows) != 0 {
		t.Errorf("stale rows survived the selection change: rows=%d hasData=%v",
			len(updated.rows), updated.hasData)
	}
}

func TestViewPathMapping(t *testing.T) {
	tests := []struct {
		v    view
		want string
	}{
		{viewLogin, guard.PathLogin},
		{viewSignup, guard.PathSignup},
		{viewTelemetry, guard.PathTelemetry},
		{viewShipmentForm, guard.PathShipments},
		{viewShipments, guard.PathShipments},
		{viewAccount, guard.PathAccount},
		{viewDashboard, guard.PathDashboard},
		{viewHistory, guard.PathDashboard},
	}
	for _, tt := range tests {
		if got := viewPath(tt.v); got != tt.want {
			t.Errorf("viewPath(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

// Test doubles for constructing an engine the view never starts.

type nopGuard struct{}

func (nopGuard) Do(ctx context.Context, fn func(ctx context.Context, credential string) error) error {
	return fn(ctx, "t")
}

type nopSource struct{}

func (nopSource) DeviceData(ctx context.Context, credential string) ([]api.DeviceRecord, error) {
	return nil, nil
}

type nopSink struct{}

func (nopSink) Render(records []api.DeviceRecord, selection string) {}
func (nopSink) Clear()                                              {}

// clearCountSink counts Clear calls from the engine.
type clearCountSink struct {
	mu     sync.Mutex
	nClear int
}

func (s *clearCountSink) Render(records []api.DeviceRecord, selection string) {}

func (s *clearCountSink) Clear() {
	s.mu.Lock()
	s.nClear++
	s.mu.Unlock()
}

func (s *clearCountSink) clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nClear
}
