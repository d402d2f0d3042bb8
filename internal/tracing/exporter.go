package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceNameKey = attribute.Key("service.name")

// SpanRecord is the JSONL schema of one finished span.
type SpanRecord struct {
	TraceID       string            `json:"trace_id"`
	SpanID        string            `json:"span_id"`
	ParentSpanID  string            `json:"parent_span_id,omitempty"`
	Service       string            `json:"service,omitempty"`
	Operation     string            `json:"operation"`
	Kind          string            `json:"kind"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time"`
	DurationMS    int64             `json:"duration_ms"`
	Status        string            `json:"status"`
	StatusMessage string            `json:"status_message,omitempty"`
	Events        int               `json:"events,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// JSONLExporter implements sdktrace.SpanExporter by appending one JSON
// line per span to a file.
type JSONLExporter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

func NewJSONLExporter(path string) (*JSONLExporter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open span log: %w", err)
	}
	return &JSONLExporter{file: f, writer: bufio.NewWriter(f)}, nil
}

func (e *JSONLExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer == nil {
		return nil
	}

	enc := json.NewEncoder(e.writer)
	for _, span := range spans {
		if err := enc.Encode(recordOf(span)); err != nil {
			return fmt.Errorf("encode span %s: %w", span.Name(), err)
		}
	}
	return e.writer.Flush()
}

// Shutdown flushes pending data and closes the file. Later exports are
// silently dropped.
func (e *JSONLExporter) Shutdown(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil
	}
	flushErr := e.writer.Flush()
	closeErr := e.file.Close()
	e.file = nil
	e.writer = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func statusName(c codes.Code) string {
	switch c {
	case codes.Error:
		return "error"
	case codes.Ok:
		return "ok"
	default:
		return "unset"
	}
}

func recordOf(s sdktrace.ReadOnlySpan) SpanRecord {
	sc := s.SpanContext()

	var parentID string
	if p := s.Parent(); p.HasSpanID() {
		parentID = p.SpanID().String()
	}

	var service string
	if res := s.Resource(); res != nil {
		if v, ok := res.Set().Value(serviceNameKey); ok {
			service = v.Emit()
		}
	}

	var attrs map[string]string
	if kvs := s.Attributes(); len(kvs) > 0 {
		attrs = make(map[string]string, len(kvs))
		for _, kv := range kvs {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
	}

	start, end := s.StartTime(), s.EndTime()
	return SpanRecord{
		TraceID:       sc.TraceID().String(),
		SpanID:        sc.SpanID().String(),
		ParentSpanID:  parentID,
		Service:       service,
		Operation:     s.Name(),
		Kind:          s.SpanKind().String(),
		StartTime:     start.Format(time.RFC3339Nano),
		EndTime:       end.Format(time.RFC3339Nano),
		DurationMS:    end.Sub(start).Milliseconds(),
		Status:        statusName(s.Status().Code),
		StatusMessage: s.Status().Description,
		Events:        len(s.Events()),
		Attributes:    attrs,
	}
}

var _ sdktrace.SpanExporter = (*JSONLExporter)(nil)
