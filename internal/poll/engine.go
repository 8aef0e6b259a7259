// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/morganforge/scmlite-tui/internal/api"
)

// DefaultInterval is the gap between telemetry refetches.
const DefaultInterval = 5 * time.Second

// ErrEmptySelection is returned by Start when no device is selected.
var ErrEmptySelection = errors.New("no device selected")

// Privileged is the slice of the session guard the engine fetches
// through. The guard supplies the credential and owns the teardown on a
// rejected one.
type Privileged interface {
	Do(ctx context.Context, fn func(ctx context.Context, credential string) error) error
}

// Source fetches raw telemetry with a supplied credential.
type Source interface {
	DeviceData(ctx context.Context, credential string) ([]api.DeviceRecord, error)
}

// Sink receives prepared rows. Render replaces whatever was shown
// before; Clear resets the display to its placeholder.
type Sink interface {
	Render(records []api.DeviceRecord, selection string)
	Clear()
}

// Engine owns at most one recurring fetch-render cycle.
type Engine struct {
	guard    Privileged
	source   Source
	sink     Sink
	interval time.Duration
	logger   *log.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	selection  string
}

// New creates an idle Engine. A nil logger discards background fetch
// errors.
func New(guard Privileged, source Source, sink Sink, interval time.Duration, logger *log.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{
		guard:    guard,
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Start begins a cycle for the given device selection. Any previous
// cycle is canceled first; its in-flight response, if one arrives later,
// is dropped. The first fetch happens immediately.
func (e *Engine) Start(selection string) error {
	if selection == "" {
		return ErrEmptySelection
	}

	e.mu.Lock()
	e.stopLocked()
	e.selection = selection
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(ctx, gen, selection)
	return nil
}

// Stop cancels the active cycle. Idempotent; safe with nothing running.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()
}

// OnSelectionChanged stops the cycle and clears the display back to its
// placeholder. It never restarts polling; the caller decides when the
// new selection is worth fetching.
func (e *Engine) OnSelectionChanged(selection string) {
	e.mu.Lock()
	e.stopLocked()
	e.selection = selection
	e.mu.Unlock()

	e.sink.Clear()
}

// Selection returns the most recently requested device selection.
func (e *Engine) Selection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// Active reports whether a cycle is currently running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// stopLocked bumps the generation and cancels any running cycle.
// Caller holds e.mu.
func (e *Engine) stopLocked() {
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// run is the cycle goroutine: one immediate fetch, then one per tick
// until the context is canceled.
func (e *Engine) run(ctx context.Context, gen uint64, selection string) {
	e.fetchOnce(ctx, gen, selection)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.fetchOnce(ctx, gen, selection)
		}
	}
}

// fetchOnce performs a single guarded fetch and renders the result,
// unless the cycle was superseded while the fetch was in flight.
func (e *Engine) fetchOnce(ctx context.Context, gen uint64, selection string) {
	var records []api.DeviceRecord
	err := e.guard.Do(ctx, func(ctx context.Context, credential string) error {
		var fetchErr error
		records, fetchErr = e.source.DeviceData(ctx, credential)
		return fetchErr
	})

	// The generation is authoritative: whatever happened, a superseded
	// cycle must not touch the display.
	e.mu.Lock()
	stale := gen != e.generation
	e.mu.Unlock()
	if stale {
		return
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Auth rejection already tore the world down through the guard,
		// which cancels this cycle via the hook. Transient failures keep
		// the previous rows on screen and let the ticker try again.
		e.logger.Printf("telemetry fetch failed (device %s): %v", selection, err)
		return
	}

	e.sink.Render(Prepare(records, selection), selection)
}
