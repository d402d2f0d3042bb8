package dashboardpb

import (
	"testing"
	"time"
)

func TestCodecKeepsSubSecondTimestamps(t *testing.T) {
	ts := time.Date(2020, 3, 4, 5, 6, 7, 891000000, time.UTC)
	in := &AppMetricsResponse{
		ID:    "mindreader",
		Title: "Mindreader",
		Metrics: []*Metric{
			{Timestamp: ts, Value: 1.5, Type: MetricTypeHeadBlockTimeDrift},
			{Timestamp: ts, Value: 1200, Type: MetricTypeHeadBlockNumber},
		},
	}

	var c Codec
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := new(AppMetricsResponse)
	if err := c.Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.ID != "mindreader" || out.Title != "Mindreader" {
		t.Fatalf("got id=%q title=%q", out.ID, out.Title)
	}
	if len(out.Metrics) != 2 {
		t.Fatalf("got %d metrics, want 2", len(out.Metrics))
	}
	if !out.Metrics[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp=%v, want %v", out.Metrics[0].Timestamp, ts)
	}
	if out.Metrics[1].Type != MetricTypeHeadBlockNumber {
		t.Errorf("type=%v, want HEAD_BLOCK_NUMBER", out.Metrics[1].Type)
	}
}

func TestCodecIgnoresUnknownFields(t *testing.T) {
	type futureAppInfo struct {
		ID      string `cbor:"id"`
		Status  int32  `cbor:"status"`
		Version string `cbor:"version"`
	}

	var c Codec
	data, err := c.Marshal(&futureAppInfo{ID: "statedb", Status: 2, Version: "v2"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out AppInfo
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.ID != "statedb" || out.Status != AppStatusRunning {
		t.Errorf("got %+v", out)
	}
}

func TestAppStatusString(t *testing.T) {
	tests := []struct {
		s    AppStatus
		want string
	}{
		{AppStatusNotFound, "NOTFOUND"},
		{AppStatusCreated, "CREATED"},
		{AppStatusRunning, "RUNNING"},
		{AppStatusWarning, "WARNING"},
		{AppStatusStopped, "STOPPED"},
		{AppStatus(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("AppStatus(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
