package reconcile

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/selemilka/hivewatch/internal/telemetry"
)

// Window bounds the retained drift samples of a series.
type Window struct {
	// MaxCount caps the number of samples. Zero or less disables the cap.
	MaxCount int
	// Retention is the maximum age of a sample relative to the newest one.
	Retention time.Duration
}

// DefaultWindow keeps the last minute of drift, at most 100 samples.
func DefaultWindow() Window {
	return Window{MaxCount: 100, Retention: 60 * time.Second}
}

// MetricsSet maps process id to its reconciled metric series.
type MetricsSet map[string]telemetry.MetricSeries

// Sorted returns the series ordered by id.
func (s MetricsSet) Sorted() []telemetry.MetricSeries {
	out := make([]telemetry.MetricSeries, 0, len(s))
	for _, id := range slices.Sorted(maps.Keys(s)) {
		out = append(out, s[id])
	}
	return out
}

// Result reports what ApplyMetrics did with a message.
type Result struct {
	Series  telemetry.MetricSeries
	Dropped int // entries of unknown kind, non-finite values or late drift
}

// ApplyMetricsSet folds msg into a copy of set and returns it along with
// the number of entries dropped.
func ApplyMetricsSet(set MetricsSet, msg telemetry.MetricsMessage, w Window) (MetricsSet, int) {
	next := make(MetricsSet, len(set)+1)
	maps.Copy(next, set)
	existing, ok := set[msg.ID]
	if !ok {
		existing = telemetry.MetricSeries{ID: msg.ID}
	}
	res := ApplyMetrics(existing, msg, w)
	next[msg.ID] = res.Series
	return next, res.Dropped
}

// ApplyMetrics folds one message into existing and returns the new series.
//
// Head-block entries raise HeadBlockNumber to the largest value seen and
// never lower it. Drift entries are appended in message order; before
// each append, samples older than w.Retention relative to the incoming
// timestamp are trimmed from the front, and after it the series is cut
// to the newest w.MaxCount samples. Negative drift is stored as zero.
// A drift entry older than the newest retained sample is dropped and
// counted rather than appended. This deliberately departs from plain
// append-in-arrival-order so the series stays time-ordered and the
// retention trim, which scans from the front, stays correct. Head-block
// values at or above 2^64 saturate at math.MaxUint64.
func ApplyMetrics(existing telemetry.MetricSeries, msg telemetry.MetricsMessage, w Window) Result {
	out := telemetry.MetricSeries{
		ID:              existing.ID,
		Title:           existing.Title,
		HeadBlockNumber: existing.HeadBlockNumber,
	}
	if out.ID == "" {
		out.ID = msg.ID
	}
	if out.Title == "" {
		out.Title = msg.Title
	}

	var drift, heads []telemetry.MetricEntry
	dropped := 0
	for _, e := range msg.Entries {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			dropped++
			continue
		}
		switch e.Kind {
		case telemetry.KindDrift:
			drift = append(drift, e)
		case telemetry.KindHeadBlockNumber:
			heads = append(heads, e)
		default:
			dropped++
		}
	}

	for _, e := range heads {
		if e.Value <= 0 {
			continue
		}
		n := uint64(math.MaxUint64)
		if e.Value < 1<<64 {
			n = uint64(e.Value)
		}
		if n > out.HeadBlockNumber {
			out.HeadBlockNumber = n
		}
	}

	samples := make([]telemetry.DriftSample, len(existing.Drift), len(existing.Drift)+len(drift))
	copy(samples, existing.Drift)
	for _, e := range drift {
		if n := len(samples); n > 0 && e.Timestamp.Before(samples[n-1].Timestamp) {
			dropped++
			continue
		}
		samples = appendSample(samples, telemetry.DriftSample{
			Timestamp: e.Timestamp,
			Value:     max(e.Value, 0),
		}, w)
	}
	out.Drift = slices.Clip(samples)

	return Result{Series: out, Dropped: dropped}
}

// appendSample trims, appends and caps samples in place. samples must be
// owned by the caller.
func appendSample(samples []telemetry.DriftSample, s telemetry.DriftSample, w Window) []telemetry.DriftSample {
	if len(samples) > 0 {
		first := slices.IndexFunc(samples, func(d telemetry.DriftSample) bool {
			return s.Timestamp.Sub(d.Timestamp) <= w.Retention
		})
		if first < 0 {
			first = len(samples)
		}
		samples = samples[first:]
	}

	samples = append(samples, s)

	if w.MaxCount > 0 && len(samples) > w.MaxCount {
		samples = samples[len(samples)-w.MaxCount:]
	}
	return samples
}
