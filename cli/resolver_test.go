package cli

import (
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveString(t *testing.T, src string) kong.Resolver {
	t.Helper()

	r, err := resolve(t.Context())(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	return r
}

func flagNamed(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func TestResolve_Values(t *testing.T) {
	t.Parallel()

	r := resolveString(t, `
(def log-level "debug")
(def log_pretty false)
(define max-steps (* 1024 4))
(def ratio 0.5)
(def tags '("a" "b"))
(define (helper x) x)
`)

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-pretty", false},
		{"max-steps", "4096"},
		{"ratio", "0.5"},
		{"helper", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, err := r.Resolve(nil, nil, flagNamed(tt.flag))
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.flag, err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}

	got, _ := r.Resolve(nil, nil, flagNamed("tags"))

	list, ok := got.([]any)
	if !ok || !slices.Equal(list, []any{"a", "b"}) {
		t.Errorf("Resolve(tags) = %#v", got)
	}
}

func TestResolve_FailedFormsSkipped(t *testing.T) {
	t.Parallel()

	r := resolveString(t, `
(def log-level "warn")
(undefined-proc 1)
(def log-format "json")
(def broken (
`)

	for flag, want := range map[string]any{"log-level": "warn", "log-format": "json"} {
		got, err := r.Resolve(nil, nil, flagNamed(flag))
		if err != nil || got != want {
			t.Errorf("Resolve(%q) = %#v, %v; want %#v", flag, got, err, want)
		}
	}
}

func TestResolve_Sandboxed(t *testing.T) {
	t.Parallel()

	// Storage primitives have no backend while loading config.
	r := resolveString(t, `(def stored (db-put "k" 1)) (def log-level "error")`)

	got, _ := r.Resolve(nil, nil, flagNamed("stored"))
	if got != nil {
		t.Errorf("Resolve(stored) = %#v, want nil", got)
	}

	got, _ = r.Resolve(nil, nil, flagNamed("log-level"))
	if got != "error" {
		t.Errorf("Resolve(log-level) = %#v, want error", got)
	}
}

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	r := resolveString(t, "")

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate: %v", err)
	}

	got, err := r.Resolve(nil, nil, flagNamed("log-level"))
	if got != nil || err != nil {
		t.Errorf("Resolve = %#v, %v", got, err)
	}
}

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  logLevel
		format logFormat
		pretty bool
		caller bool
	}{
		{"none", []string{"eval", "-e", "(+ 1 2)"}, "", "", true, false},
		{"assigned", []string{"--log-level=debug", "--log-format=json"}, "debug", "json", true, false},
		{"separate", []string{"--log-level", "warn", "repl"}, "warn", "", true, false},
		{"toggles", []string{"--no-log-pretty", "--log-caller"}, "", "", false, true},
		{"toggle value", []string{"--log-pretty=false", "--no-log-caller=false"}, "", "", false, true},
		{"after terminator", []string{"--", "--log-level=error"}, "", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level || f.Format != tt.format ||
				f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}
