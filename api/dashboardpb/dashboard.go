// Package dashboardpb holds the wire types and gRPC bindings of the
// dashboard.Dashboard service. Messages are plain structs carried by the
// CBOR codec registered in codec.go, so no protoc step is involved.
package dashboardpb

import "time"

// AppStatus is the lifecycle state of a monitored app as reported by the
// dashboard backend.
type AppStatus int32

const (
	AppStatusNotFound AppStatus = 0
	AppStatusCreated  AppStatus = 1
	AppStatusRunning  AppStatus = 2
	AppStatusWarning  AppStatus = 3
	AppStatusStopped  AppStatus = 4
)

func (s AppStatus) String() string {
	switch s {
	case AppStatusNotFound:
		return "NOTFOUND"
	case AppStatusCreated:
		return "CREATED"
	case AppStatusRunning:
		return "RUNNING"
	case AppStatusWarning:
		return "WARNING"
	case AppStatusStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// MetricType tags a Metric entry.
type MetricType int32

const (
	MetricTypeHeadBlockTimeDrift MetricType = 0
	MetricTypeHeadBlockNumber    MetricType = 1
)

func (t MetricType) String() string {
	switch t {
	case MetricTypeHeadBlockTimeDrift:
		return "HEAD_BLOCK_TIME_DRIFT"
	case MetricTypeHeadBlockNumber:
		return "HEAD_BLOCK_NUMBER"
	default:
		return "UNKNOWN"
	}
}

type AppInfo struct {
	ID          string    `cbor:"id"`
	Title       string    `cbor:"title,omitempty"`
	Description string    `cbor:"description,omitempty"`
	Status      AppStatus `cbor:"status"`
}

type AppsListRequest struct{}

type AppsListResponse struct {
	Apps []*AppInfo `cbor:"apps"`
}

type AppsInfoRequest struct {
	FilterAppID string `cbor:"filter_app_id,omitempty"`
}

type AppsInfoResponse struct {
	Apps []*AppInfo `cbor:"apps"`
}

type AppsMetricsRequest struct {
	FilterAppID string `cbor:"filter_app_id,omitempty"`
}

// Metric is one sample. Value is seconds for drift entries and a block
// number for head-block entries.
type Metric struct {
	Timestamp time.Time  `cbor:"timestamp"`
	Value     float64    `cbor:"value"`
	Type      MetricType `cbor:"type"`
}

type AppMetricsResponse struct {
	ID      string    `cbor:"id"`
	Title   string    `cbor:"title,omitempty"`
	Metrics []*Metric `cbor:"metrics"`
}

type StartAppRequest struct {
	AppID string `cbor:"app_id"`
}

type StartAppResponse struct{}

type StopAppRequest struct {
	AppID string `cbor:"app_id"`
}

type StopAppResponse struct{}
