// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/history"
)

// ProgramSink delivers telemetry batches from the polling engine into the
// Bubble Tea event loop via program.Send, and optionally archives each
// batch in the local history store. It satisfies poll.Sink.
type ProgramSink struct {
	mu      sync.Mutex
	program *tea.Program
	hist    *history.Store
	logger  *log.Logger
}

// NewProgramSink creates a sink. The history store may be nil when local
// archiving is disabled. The program reference is attached later with
// SetProgram because the sink must exist before tea.NewProgram runs.
func NewProgramSink(hist *history.Store, logger *log.Logger) *ProgramSink {
	if logger == nil {
		logger = log.Default()
	}
	return &ProgramSink{hist: hist, logger: logger}
}

// SetProgram attaches the running program. Until it is set, batches are
// archived but not displayed.
func (s *ProgramSink) SetProgram(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

// Render pushes a prepared batch into the event loop and archives it.
func (s *ProgramSink) Render(records []api.DeviceRecord, selection string) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()

	if p != nil {
		p.Send(telemetryMsg{records: records, selection: selection})
	}

	if s.hist != nil && len(records) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.hist.Append(ctx, records); err != nil {
			s.logger.Printf("history append failed: %v", err)
		}
	}
}

// Clear resets the telemetry display to its placeholder.
func (s *ProgramSink) Clear() {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()

	if p != nil {
		p.Send(telemetryClearMsg{})
	}
}
