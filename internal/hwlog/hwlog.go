// Package hwlog configures log/slog for hivewatch. Packages log through
// For(component); Init decides where records go.
package hwlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// sink owns the process-wide level and the optional JSON log file.
var sink struct {
	sync.Mutex
	level slog.LevelVar
	file  *os.File
}

// Init installs the default logger: text records on stderr and, when
// path is set, JSON records appended to path. Unknown levels mean info.
func Init(level, path string) error {
	sink.Lock()
	defer sink.Unlock()

	sink.level.Set(ParseLevel(level))
	opts := &slog.HandlerOptions{Level: &sink.level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", path, err)
		}
		if sink.file != nil {
			sink.file.Close()
		}
		sink.file = f
		h = fanout{h, slog.NewJSONHandler(f, opts)}
	}

	slog.SetDefault(slog.New(h))
	return nil
}

// Close releases the log file opened by Init.
func Close() error {
	sink.Lock()
	defer sink.Unlock()
	if sink.file == nil {
		return nil
	}
	err := sink.file.Close()
	sink.file = nil
	return err
}

// For returns the default logger tagged with component.
func For(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func SetLevel(level string) { sink.level.Set(ParseLevel(level)) }

// Level names the current level, rounding custom levels up to the
// nearest named one.
func Level() string {
	cur := sink.level.Level()
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if cur <= l {
			return strings.ToLower(l.String())
		}
	}
	return "error"
}

func ParseLevel(s string) slog.Level {
	if l, ok := levelNames[strings.ToLower(s)]; ok {
		return l
	}
	return slog.LevelInfo
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(wrap func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = wrap(h)
	}
	return out
}
