package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCheck_Run(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean.kl", "(define (sq x) (* x x))\n(sq 3)\n")
	dup := writeFile(t, dir, "dup.kl", "(define a 1)\n(define a 2)\n")
	broken := writeFile(t, dir, "broken.kl", "(define b 1)\n(nope)\n")

	tests := []struct {
		name    string
		check   Check
		wantOut []string
		wantErr error
	}{
		{
			name:  "clean",
			check: Check{Format: "text", Files: []string{clean}},
		},
		{
			name:    "warning_passes",
			check:   Check{Format: "text", Files: []string{dup}},
			wantOut: []string{dup + ":2:9: warning: duplicate-definition: "},
		},
		{
			name:    "warning_strict",
			check:   Check{Format: "text", Strict: true, Files: []string{dup}},
			wantOut: []string{"duplicate-definition"},
			wantErr: ErrCheck,
		},
		{
			name:    "error_fails",
			check:   Check{Format: "text", Files: []string{clean, broken}},
			wantOut: []string{broken + ":2:", ": error: NameError: "},
			wantErr: ErrCheck,
		},
		{
			name:    "yaml",
			check:   Check{Format: "yaml", Files: []string{dup}},
			wantOut: []string{"- file: " + dup, "severity: warning", "code: duplicate-definition"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, stdout, _ := testContext(t, "", "")

			err := tt.check.Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if len(tt.wantOut) == 0 && stdout.Len() != 0 {
				t.Errorf("stdout = %q, want nothing", stdout)
			}

			for _, want := range tt.wantOut {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestCheck_RunJSON(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.kl", "(nope)\n")

	ctx, stdout, _ := testContext(t, "", "")

	err := (&Check{Format: "json", Files: []string{broken}}).Run(ctx)
	if !errors.Is(err, ErrCheck) {
		t.Fatalf("Run() error = %v, want ErrCheck", err)
	}

	var found []finding
	if err := json.Unmarshal(stdout.Bytes(), &found); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if len(found) != 1 {
		t.Fatalf("findings = %+v, want 1", found)
	}

	f := found[0]
	if f.File != broken || f.Line != 1 || f.Column != 2 || f.Severity != "error" || f.Code != "NameError" {
		t.Errorf("finding = %+v", f)
	}
}

func TestCheck_RunJSONEmpty(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean.kl", "(+ 1 2)\n")

	ctx, stdout, _ := testContext(t, "", "")

	if err := (&Check{Format: "json", Files: []string{clean}}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if strings.TrimSpace(stdout.String()) != "[]" {
		t.Errorf("stdout = %q, want []", stdout)
	}
}
