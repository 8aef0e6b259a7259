// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"testing"

	"github.com/morganforge/scmlite-tui/internal/api"
)

func record(deviceID int, ts int64) api.DeviceRecord {
	return api.DeviceRecord{
		DeviceID:          deviceID,
		BatteryLevel:      3.7,
		SensorTemperature: 22.5,
		RouteFrom:         "Newyork,USA",
		RouteTo:           "Chennai, India",
		Timestamp:         ts,
	}
}

func TestPrepareFiltersBySelection(t *testing.T) {
	records := []api.DeviceRecord{
		record(1150, 100),
		record(1151, 200),
		record(1150, 300),
		record(1152, 400),
	}

	got := Prepare(records, "1150")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, rec := range got {
		if rec.DeviceID != 1150 {
			t.Errorf("record for device %d passed the 1150 filter", rec.DeviceID)
		}
	}
}

func TestPrepareAllDisablesFilter(t *testing.T) {
	records := []api.DeviceRecord{
		record(1150, 100),
		record(1151, 200),
		record(1158, 300),
	}
	got := Prepare(records, SelectionAll)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestPrepareSortsNewestFirst(t *testing.T) {
	records := []api.DeviceRecord{
		record(1150, 100),
		record(1150, 500),
		record(1150, 300),
	}
	got := Prepare(records, "1150")
	want := []int64{500, 300, 100}
	for i, ts := range want {
		if got[i].Timestamp != ts {
			t.Errorf("row %d timestamp = %d, want %d", i, got[i].Timestamp, ts)
		}
	}
}

func TestPrepareCapsAfterFilterAndSort(t *testing.T) {
	// Interleave two devices so the cap must apply after filtering: the
	// 1150 rows alone exceed MaxRows, and the newest ones must survive.
	var records []api.DeviceRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(1150, int64(i)))
		records = append(records, record(1151, int64(1000+i)))
	}

	got := Prepare(records, "1150")
	if len(got) != MaxRows {
		t.Fatalf("len = %d, want %d", len(got), MaxRows)
	}
	// Newest 1150 timestamps are 19 down to 5.
	if got[0].Timestamp != 19 {
		t.Errorf("first row timestamp = %d, want 19", got[0].Timestamp)
	}
	if got[MaxRows-1].Timestamp != 5 {
		t.Errorf("last row timestamp = %d, want 5", got[MaxRows-1].Timestamp)
	}
	for _, rec := range got {
		if rec.DeviceID != 1150 {
			t.Errorf("device %d leaked through the filter", rec.DeviceID)
		}
	}
}

func TestPrepareDoesNotModifyInput(t *testing.T) {
	records := []api.DeviceRecord{
		record(1150, 100),
		record(1150, 300),
		record(1150, 200),
	}
	Prepare(records, SelectionAll)
	want := []int64{100, 300, 200}
	for i, ts := range want {
		if records[i].Timestamp != ts {
			t.Fatalf("input reordered: index %d timestamp = %d, want %d", i, records[i].Timestamp, ts)
		}
	}
}

func TestPrepareEmptyInput(t *testing.T) {
	if got := Prepare(nil, SelectionAll); len(got) != 0 {
		t.Errorf("Prepare(nil) = %v", got)
	}
	if got := Prepare(nil, "1150"); len(got) != 0 {
		t.Errorf("Prepare(nil, 1150) = %v", got)
	}
}
