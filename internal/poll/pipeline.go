// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"sort"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/util"
)

// SelectionAll disables device filtering.
const SelectionAll = "all"

// MaxRows is the most records a single render carries.
const MaxRows = 15

// Prepare turns a raw fetch response into display-ready records: filter
// by the selected device, newest first, at most MaxRows. Pure function;
// the input slice is not modified.
func Prepare(records []api.DeviceRecord, selection string) []api.DeviceRecord {
	filtered := filterByDevice(records, selection)

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp > filtered[j].Timestamp
	})

	if len(filtered) > MaxRows {
		filtered = filtered[:MaxRows]
	}
	return filtered
}

func filterByDevice(records []api.DeviceRecord, selection string) []api.DeviceRecord {
	if selection == SelectionAll {
		out := make([]api.DeviceRecord, len(records))
		copy(out, records)
		return out
	}

	var out []api.DeviceRecord
	for _, rec := range records {
		if util.IntToString(rec.DeviceID) == selection {
			out = append(out, rec)
		}
	}
	return out
}
