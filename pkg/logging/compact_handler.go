package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CompactHandler formats logs in a compact, readable format for console output
// Format: [LEVEL] HH:MM:SS [component] message | key=value key=value
type CompactHandler struct {
	level     slog.Leveler
	mu        *sync.Mutex
	out       io.Writer
	component string
	attrs     []slog.Attr // from WithAttrs, keys already carry the group prefix
	prefix    string      // "group." for each open WithGroup
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	h := &CompactHandler{level: slog.LevelInfo, mu: &sync.Mutex{}, out: w}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// levelTag returns a fixed width level prefix
func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "[TRACE] "
	case l < slog.LevelInfo:
		return "[DEBUG] "
	case l < slog.LevelWarn:
		return "[INFO]  "
	case l < slog.LevelError:
		return "[WARN]  "
	}
	return "[ERROR] "
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	component := h.component
	recordAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return true
		}
		a.Key = h.prefix + a.Key
		recordAttrs = append(recordAttrs, a)
		return true
	})

	buf := make([]byte, 0, 256)
	buf = append(buf, levelTag(r.Level)...)
	if !r.Time.IsZero() {
		buf = r.Time.AppendFormat(buf, "15:04:05")
		buf = append(buf, ' ')
	}
	if component != "" {
		buf = append(buf, '[')
		buf = append(buf, component...)
		buf = append(buf, "] "...)
	}
	buf = append(buf, r.Message...)

	sep := " | "
	for _, attrs := range [][]slog.Attr{h.attrs, recordAttrs} {
		for _, a := range attrs {
			if a.Equal(slog.Attr{}) {
				continue
			}
			buf = append(buf, sep...)
			sep = " "
			buf = appendAttr(buf, a)
		}
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

// appendAttr writes key=value. Request ids are shortened to 8 characters
// and durations in milliseconds get a unit.
func appendAttr(buf []byte, a slog.Attr) []byte {
	v := a.Value.Resolve()
	name := a.Key[strings.LastIndexByte(a.Key, '.')+1:]

	switch name {
	case "requestID":
		if s := v.String(); v.Kind() == slog.KindString && len(s) > 8 {
			return append(append(buf, "req="...), s[:8]...)
		}
	case "durationMs":
		buf = append(buf, "duration="...)
		return append(appendValue(buf, v), "ms"...)
	case "error":
		buf = append(buf, a.Key...)
		return strconv.AppendQuote(append(buf, '='), fmt.Sprint(v.Any()))
	}

	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, v)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		// Concept labels are full of spaces and parentheses
		if s := v.String(); needsQuoting(s) {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, v.String()...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	}
	return fmt.Append(buf, v.Any())
}

func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"=()")
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if a.Key == "component" {
			next.component = a.Value.String()
			continue
		}
		a.Key = h.prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
