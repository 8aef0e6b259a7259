// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/token"
)

// passthroughGuard supplies a fixed credential without any enforcement.
type passthroughGuard struct{}

func (passthroughGuard) Do(ctx context.Context, fn func(ctx context.Context, credential string) error) error {
	return fn(ctx, "test-credential")
}

// scriptedSource serves canned records, optionally holding each fetch
// open until released.
type scriptedSource struct {
	mu      sync.Mutex
	records []api.DeviceRecord
	err     error
	calls   int
	release chan struct{}
}

func (s *scriptedSource) DeviceData(ctx context.Context, credential string) ([]api.DeviceRecord, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	records, err := s.records, s.err
	s.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}
	return records, err
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingSink counts renders and clears and remembers the last rows.
type recordingSink struct {
	mu      sync.Mutex
	renders int
	clears  int
	last    []api.DeviceRecord
	lastSel string
}

func (s *recordingSink) Render(records []api.DeviceRecord, selection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders++
	s.last = records
	s.lastSel = selection
}

func (s *recordingSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.last = nil
}

func (s *recordingSink) renderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

func (s *recordingSink) lastRows() []api.DeviceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *recordingSink) lastSelection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStartEmptySelection(t *testing.T) {
	source := &scriptedSource{}
	engine := New(passthroughGuard{}, source, &recordingSink{}, time.Hour, nil)

	if err := engine.Start(""); err != ErrEmptySelection {
		t.Fatalf("Start(\"\") = %v, want ErrEmptySelection", err)
	}
	if engine.Active() {
		t.Error("cycle running after rejected Start")
	}
	if source.callCount() != 0 {
		t.Error("fetch performed despite rejected Start")
	}
}

func TestStartFetchesImmediately(t *testing.T) {
	source := &scriptedSource{records: []api.DeviceRecord{record(1150, 100)}}
	sink := &recordingSink{}
	engine := New(passthroughGuard{}, source, sink, time.Hour, nil)
	defer engine.Stop()

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return sink.renderCount() == 1 })

	rows := sink.lastRows()
	if len(rows) != 1 || rows[0].DeviceID != 1150 {
		t.Errorf("rendered rows = %+v", rows)
	}
}

func TestRestartCancelsPreviousCycle(t *testing.T) {
	source := &scriptedSource{records: []api.DeviceRecord{record(1150, 100)}}
	sink := &recordingSink{}
	engine := New(passthroughGuard{}, source, sink, 10*time.Millisecond, nil)
	defer engine.Stop()

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return source.callCount() >= 2 })

	if err := engine.Start("1151"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return sink.lastSelection() == "1151" })

	// With at most one cycle alive, the fetch rate stays near one per
	// interval. Two concurrent cycles would roughly double it.
	source.mu.Lock()
	before := source.calls
	source.mu.Unlock()
	time.Sleep(100 * time.Millisecond)
	source.mu.Lock()
	after := source.calls
	source.mu.Unlock()

	if delta := after - before; delta > 14 {
		t.Errorf("%d fetches in 100ms at a 10ms interval suggests overlapping cycles", delta)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	engine := New(passthroughGuard{}, &scriptedSource{}, &recordingSink{}, time.Hour, nil)

	engine.Stop()
	engine.Stop()

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	engine.Stop()
	engine.Stop()
	if engine.Active() {
		t.Error("cycle still active after Stop")
	}
}

func TestSelectionChangeClearsAndStaysStopped(t *testing.T) {
	source := &scriptedSource{records: []api.DeviceRecord{record(1150, 100)}}
	sink := &recordingSink{}
	engine := New(passthroughGuard{}, source, sink, time.Hour, nil)

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return sink.renderCount() == 1 })

	engine.OnSelectionChanged("1151")

	sink.mu.Lock()
	clears, last := sink.clears, sink.last
	sink.mu.Unlock()
	if clears != 1 {
		t.Errorf("clears = %d, want 1", clears)
	}
	if last != nil {
		t.Errorf("rows survive a selection change: %+v", last)
	}
	if engine.Active() {
		t.Error("cycle restarted itself after selection change")
	}
	if got := engine.Selection(); got != "1151" {
		t.Errorf("selection = %q", got)
	}

	// No renders trickle in afterwards.
	time.Sleep(50 * time.Millisecond)
	if sink.renderCount() != 1 {
		t.Errorf("renders = %d after selection change, want 1", sink.renderCount())
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	source := &scriptedSource{
		records: []api.DeviceRecord{record(1150, 100)},
		release: release,
	}
	sink := &recordingSink{}
	engine := New(passthroughGuard{}, source, sink, time.Hour, nil)

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return source.callCount() == 1 })

	// Supersede the cycle while its fetch is still in flight, then let
	// the late response land.
	engine.OnSelectionChanged("1151")
	close(release)

	time.Sleep(50 * time.Millisecond)
	if sink.renderCount() != 0 {
		t.Errorf("stale response was rendered (%d renders)", sink.renderCount())
	}
}

func TestTransientErrorKeepsPolling(t *testing.T) {
	source := &scriptedSource{err: api.ErrUnreachable}
	sink := &recordingSink{}
	engine := New(passthroughGuard{}, source, sink, 10*time.Millisecond, nil)
	defer engine.Stop()

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return source.callCount() >= 3 })

	if sink.renderCount() != 0 {
		t.Errorf("renders = %d during failing fetches, want 0", sink.renderCount())
	}

	// Recovery: once the backend answers, rows appear again.
	source.mu.Lock()
	source.err = nil
	source.records = []api.DeviceRecord{record(1150, 100)}
	source.mu.Unlock()
	waitFor(t, func() bool { return sink.renderCount() >= 1 })
}

// rejectingSource fails every fetch with an auth rejection.
type rejectingSource struct {
	mu    sync.Mutex
	calls int
}

func (s *rejectingSource) DeviceData(ctx context.Context, credential string) ([]api.DeviceRecord, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil, api.ErrAuthRejected
}

func (s *rejectingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestAuthRejectionTearsDownSessionAndCycle(t *testing.T) {
	store := token.NewStore()
	store.Set("stale-credential", token.Profile{Email: "pat@example.com"})
	g := guard.New(store, nil)

	source := &rejectingSource{}
	sink := &recordingSink{}
	engine := New(g, source, sink, 5*time.Millisecond, nil)
	g.SetCancelHook(engine.Stop)

	if err := engine.Start("1150"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return !engine.Active() })

	if _, held := store.Get(); held {
		t.Error("credential survived an auth rejection")
	}
	if sink.renderCount() != 0 {
		t.Errorf("renders = %d after rejection, want 0", sink.renderCount())
	}

	// The stopped cycle must not fetch again.
	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	if source.callCount() != calls {
		t.Error("fetches continued after teardown")
	}
}
