package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type valuer struct{}

func (valuer) Error() string { return "boom" }

func (valuer) LogValue() slog.Value {
	return slog.GroupValue(slog.String("kind", "NameError"))
}

func TestLogger_ZeroValue_Discards(t *testing.T) {
	var l Logger

	l.Info("nothing")
	l.With(slog.String("k", "v")).Error("still nothing")

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}
}

func TestLogger_Make_Defaults(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf)

	if l.Level() != LevelInfo {
		t.Errorf("level = %v, want info", l.Level())
	}

	if l.Format() != FormatText {
		t.Errorf("format = %v, want text", l.Format())
	}

	l.Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
}

func TestLogger_Levels_Filter(t *testing.T) {
	tests := []struct {
		name   string
		floor  Level
		call   func(Logger, string, ...slog.Attr)
		logged bool
	}{
		{"trace at trace", LevelTrace, Logger.Trace, true},
		{"trace at debug", LevelDebug, Logger.Trace, false},
		{"debug at info", LevelInfo, Logger.Debug, false},
		{"info at info", LevelInfo, Logger.Info, true},
		{"warn at error", LevelError, Logger.Warn, false},
		{"error at warn", LevelWarn, Logger.Error, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.call(Make(&buf, WithLevel(tt.floor)), "msg")

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestLogger_JSON_Fields(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelTrace)).
		With(Session("s1"))

	l.Trace("eval", Document("file:///a.kl"), Version(4))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	want := map[string]any{
		"level":   "TRACE",
		"msg":     "eval",
		"session": "s1",
		"doc":     "file:///a.kl",
		"version": float64(4),
	}

	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestLogger_TimeLayout_None(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithTimeLayout("none")).Info("x")

	if strings.Contains(buf.String(), "time=") {
		t.Errorf("timestamp written: %q", buf.String())
	}
}

func TestLogger_Caller_ReportsCallSite(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("source does not name the calling file: %q", buf.String())
	}
}

func TestLogger_Wrap_KeepsOutput(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf).Wrap(WithLevel(LevelDebug))
	l.Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("wrapped logger lost its writer or level: %q", buf.String())
	}
}

func TestPretty_WithAttrs_Retained(t *testing.T) {
	for _, format := range []Format{FormatText, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithPretty(true), WithFormat(format)).
				With(slog.String("component", "session"))
			l.Info("ready", slog.Int("workers", 2))

			out := buf.String()
			for _, want := range []string{"component", "session", "workers", "ready"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q: %q", want, out)
				}
			}
		})
	}
}

func TestErr_LogValuer(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON))
	l.Error("failed", Err(valuer{}))
	l.Error("failed", Err(errors.New("plain")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d records, want 2", len(lines))
	}

	if !strings.Contains(lines[0], `"kind":"NameError"`) {
		t.Errorf("LogValuer not expanded: %s", lines[0])
	}

	if !strings.Contains(lines[1], `"error":"plain"`) {
		t.Errorf("plain error not logged as string: %s", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfig_DefaultLogger(t *testing.T) {
	saved := Default()
	defer SetDefault(saved)

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithFormat(FormatJSON)))
	Config(WithLevel(LevelDebug))

	DebugContext(context.Background(), "configured", slog.String("k", "v"))

	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("default logger not reconfigured: %q", buf.String())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(true))

	var wg sync.WaitGroup

	for i := range 64 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			l.Info("line", slog.Int("i", i))
		}()
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 64 {
		t.Errorf("got %d lines, want 64", n)
	}
}
