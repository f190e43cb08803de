package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// prettyHandler writes colorized records for humans. In text mode a record is
// a single line of key=value pairs; in JSON mode it is an indented object.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	json   bool
	prefix string      // group prefix applied to keys
	attrs  []slog.Attr // attrs from WithAttrs, keys already prefixed
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, json: true}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], h.prefixed(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) prefixed(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fields = append(fields, slog.Time(slog.TimeKey, r.Time))
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fields = append(fields,
				slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, h.prefixed([]slog.Attr{a})...)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		buf.WriteString("{\n")
	}

	n := 0

	for _, a := range fields {
		a = h.replace(a)
		if a.Equal(slog.Attr{}) {
			continue
		}

		h.writeAttr(&buf, a, n)
		n++
	}

	if h.json {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// replace applies ReplaceAttr to the built-in keys only. User attributes are
// written as given.
func (h *prettyHandler) replace(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if h.opts.ReplaceAttr == nil {
		return a
	}

	switch a.Key {
	case slog.TimeKey, slog.LevelKey, slog.SourceKey, slog.MessageKey:
		return h.opts.ReplaceAttr(nil, a)
	}

	return a
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr, n int) {
	if h.json {
		if n > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
	} else if n > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(ansiGray)
	buf.WriteString(a.Key)
	buf.WriteString(ansiReset)

	if h.json {
		buf.WriteString(": ")
	} else {
		buf.WriteByte('=')
	}

	if a.Key == slog.LevelKey {
		writeLevel(buf, a.Value)

		return
	}

	writeValue(buf, a.Value)
}

func writeLevel(buf *bytes.Buffer, v slog.Value) {
	name := v.String()
	color := ansiBlue

	switch upper := strings.ToUpper(name); {
	case strings.HasPrefix(upper, "ERROR"):
		color = ansiRed
	case strings.HasPrefix(upper, "WARN"):
		color = ansiYellow
	case strings.HasPrefix(upper, "INFO"):
		color = ansiGreen
	}

	colored(buf, color, name)
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindInt64:
		colored(buf, ansiYellow, strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		colored(buf, ansiYellow, strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		colored(buf, ansiYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			colored(buf, ansiGreen, "true")
		} else {
			colored(buf, ansiRed, "false")
		}
	case slog.KindDuration:
		colored(buf, ansiMagenta, v.Duration().String())
	case slog.KindTime:
		colored(buf, ansiBlue, v.Time().Format(time.RFC3339))
	case slog.KindGroup:
		buf.WriteByte('{')

		for i, a := range v.Group() {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(a.Key)
			buf.WriteByte('=')
			writeValue(buf, a.Value.Resolve())
		}

		buf.WriteByte('}')
	case slog.KindAny:
		if v.Any() == nil {
			colored(buf, ansiGray, "null")

			return
		}

		colored(buf, ansiCyan, fmt.Sprint(v.Any()))
	default:
		colored(buf, ansiCyan, v.String())
	}
}

func colored(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}
