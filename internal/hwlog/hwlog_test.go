package hwlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFor(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	For("supervisor").Info("stream ended", "stream", "status")

	out := buf.String()
	for _, want := range []string{"component=supervisor", "stream ended", "stream=status"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		SetLevel(lvl)
		if Level() != lvl {
			t.Errorf("Level()=%s, want %s", Level(), lvl)
		}
	}
	sink.level.Set(slog.LevelInfo + 2)
	if Level() != "warn" {
		t.Errorf("Level() for info+2=%s, want warn", Level())
	}
	SetLevel("info")
}

func TestInitWritesJSONFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		Close()
		slog.SetDefault(prev)
	})

	path := filepath.Join(t.TempDir(), "hivewatch.jsonl")
	if err := Init("debug", path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	For("retry").Debug("attempt failed", "attempt", 2)
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	if rec["component"] != "retry" || rec["msg"] != "attempt failed" {
		t.Errorf("record=%v", rec)
	}
}

func TestInitBadPath(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	if err := Init("info", filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Fatal("expected error for unwritable log path")
	}
}

func TestFanout(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	mh := fanout{
		slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}

	slog.New(mh).Info("multi-test", "k", "v")

	if !strings.Contains(buf1.String(), "multi-test") {
		t.Errorf("text handler missing output: %s", buf1.String())
	}
	if !strings.Contains(buf2.String(), "multi-test") {
		t.Errorf("json handler missing output: %s", buf2.String())
	}
}

func TestFanoutEnabled(t *testing.T) {
	mh := fanout{
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	if mh.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(debug)=true, want false")
	}
	if !mh.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Enabled(warn)=false, want true")
	}
}

func TestFanoutWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	mh := fanout{
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}

	slog.New(mh.WithAttrs([]slog.Attr{slog.String("stream", "metrics")})).Info("attr-test")

	if !strings.Contains(buf.String(), "stream=metrics") {
		t.Errorf("expected stream=metrics, got: %s", buf.String())
	}
}
