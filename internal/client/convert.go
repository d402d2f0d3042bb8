package client

import (
	pb "github.com/selemilka/hivewatch/api/dashboardpb"
	"github.com/selemilka/hivewatch/internal/telemetry"
)

// --- Wire → Domain ---

func statusFromWire(s pb.AppStatus) telemetry.Status {
	switch s {
	case pb.AppStatusCreated:
		return telemetry.StatusCreated
	case pb.AppStatusRunning:
		return telemetry.StatusRunning
	case pb.AppStatusWarning:
		return telemetry.StatusWarning
	case pb.AppStatusStopped:
		return telemetry.StatusStopped
	default:
		return telemetry.StatusNotFound
	}
}

func kindFromWire(t pb.MetricType) telemetry.MetricKind {
	switch t {
	case pb.MetricTypeHeadBlockTimeDrift:
		return telemetry.KindDrift
	case pb.MetricTypeHeadBlockNumber:
		return telemetry.KindHeadBlockNumber
	default:
		return telemetry.KindUnknown
	}
}

func processInfoFromWire(a *pb.AppInfo) telemetry.ProcessInfo {
	return telemetry.ProcessInfo{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Status:      statusFromWire(a.Status),
	}
}

func statusMessageFromWire(resp *pb.AppsInfoResponse) telemetry.StatusMessage {
	msg := telemetry.StatusMessage{Processes: make([]telemetry.ProcessStatus, 0, len(resp.Apps))}
	for _, a := range resp.Apps {
		if a == nil {
			continue
		}
		msg.Processes = append(msg.Processes, telemetry.ProcessStatus{
			ID:          a.ID,
			Description: a.Description,
			Status:      statusFromWire(a.Status),
		})
	}
	return msg
}

func metricsMessageFromWire(resp *pb.AppMetricsResponse) telemetry.MetricsMessage {
	msg := telemetry.MetricsMessage{
		ID:      resp.ID,
		Title:   resp.Title,
		Entries: make([]telemetry.MetricEntry, 0, len(resp.Metrics)),
	}
	for _, m := range resp.Metrics {
		if m == nil {
			continue
		}
		msg.Entries = append(msg.Entries, telemetry.MetricEntry{
			Timestamp: m.Timestamp,
			Value:     m.Value,
			Kind:      kindFromWire(m.Type),
		})
	}
	return msg
}
