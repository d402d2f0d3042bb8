// Package telemetry defines the domain types folded by the reconcilers:
// process statuses, drift samples and per-process metric series.
package telemetry

import (
	"fmt"
	"slices"
	"time"
)

// Status is the reported lifecycle state of a monitored process.
type Status int

const (
	StatusNotFound Status = iota
	StatusCreated
	StatusRunning
	StatusWarning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusWarning:
		return "warning"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText lets Status render as its name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for st := StatusNotFound; st <= StatusStopped; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// ProcessStatus is the latest known status of one process.
// The whole record is authoritative; updates replace it entirely.
type ProcessStatus struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// ProcessInfo is a row of the one-shot process listing.
type ProcessInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// DriftSample is a head-block drift measurement in seconds.
type DriftSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricSeries is the reconciled metric state of one process.
// Drift is ordered oldest to newest.
type MetricSeries struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	HeadBlockNumber uint64        `json:"head_block_number"`
	Drift           []DriftSample `json:"drift"`
}

// Clone returns a copy that shares no memory with s.
func (s MetricSeries) Clone() MetricSeries {
	s.Drift = slices.Clone(s.Drift)
	return s
}

// MetricKind is the declared type of a raw metric entry.
type MetricKind int

const (
	KindUnknown MetricKind = iota
	KindDrift
	KindHeadBlockNumber
)

func (k MetricKind) String() string {
	switch k {
	case KindDrift:
		return "drift"
	case KindHeadBlockNumber:
		return "head_block_number"
	default:
		return "unknown"
	}
}

// MetricEntry is one raw entry of an inbound metrics message.
type MetricEntry struct {
	Timestamp time.Time
	Value     float64
	Kind      MetricKind
}

// StatusMessage is one message of the status stream. It may carry zero
// or more process records.
type StatusMessage struct {
	Processes []ProcessStatus
}

// MetricsMessage is one message of the metrics stream, scoped to a
// single process id.
type MetricsMessage struct {
	ID      string
	Title   string
	Entries []MetricEntry
}
