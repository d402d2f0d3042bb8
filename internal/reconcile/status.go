// Package reconcile folds inbound telemetry messages into bounded state.
// Every function here is pure: inputs are never mutated and the returned
// values share no memory with them.
package reconcile

import (
	"maps"
	"slices"

	"github.com/selemilka/hivewatch/internal/telemetry"
)

// StatusSet maps process id to its latest status.
type StatusSet map[string]telemetry.ProcessStatus

// ApplyStatus upserts every record of msg into a copy of current. A record
// for a known id fully replaces the previous one.
func ApplyStatus(current StatusSet, msg telemetry.StatusMessage) StatusSet {
	next := make(StatusSet, len(current)+len(msg.Processes))
	maps.Copy(next, current)
	for _, p := range msg.Processes {
		next[p.ID] = p
	}
	return next
}

// Sorted returns the statuses ordered by id.
func (s StatusSet) Sorted() []telemetry.ProcessStatus {
	out := make([]telemetry.ProcessStatus, 0, len(s))
	for _, id := range slices.Sorted(maps.Keys(s)) {
		out = append(out, s[id])
	}
	return out
}
