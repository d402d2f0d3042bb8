package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusJSON(t *testing.T) {
	in := ProcessStatus{ID: "nodeos", Description: "producer", Status: StatusWarning}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"id":"nodeos","description":"producer","status":"warning"}` {
		t.Errorf("json=%s", b)
	}

	var out ProcessStatus
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("decoded=%+v, want %+v", out, in)
	}

	if err := json.Unmarshal([]byte(`{"status":"exploded"}`), &out); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestMetricSeriesClone(t *testing.T) {
	s := MetricSeries{ID: "a", Drift: []DriftSample{{Timestamp: time.Unix(1, 0), Value: 1}}}
	c := s.Clone()
	c.Drift[0].Value = 2
	if s.Drift[0].Value != 1 {
		t.Error("Clone shares the drift slice")
	}
	if empty := (MetricSeries{}).Clone(); empty.Drift != nil {
		t.Errorf("clone of nil drift=%v, want nil", empty.Drift)
	}
}
