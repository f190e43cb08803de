package analysis

//go:generate go tool stringer --linecomment --type Severity --output diagnostic_string.go

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/klisp/lang"
)

// Severity ranks a [Diagnostic]. The values match the LSP encoding.
type Severity uint8

const (
	SeverityError       Severity = iota + 1 // error
	SeverityWarning                         // warning
	SeverityInformation                     // information
	SeverityHint                            // hint
)

// Diagnostic codes for warnings. Errors use the [lang.ErrorKind] name.
const (
	CodeDuplicate = "duplicate-definition"
	CodeShadow    = "shadows-builtin"
)

// Related points at a second location that explains a diagnostic.
type Related struct {
	Span    lang.Span
	Message string
}

// Diagnostic is a problem found in one analysis pass.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     lang.Span
	Related  *Related
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s: %s", d.Span.Start, d.Severity, d.Code, d.Message)
}

// LogValue implements [slog.LogValuer].
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("severity", d.Severity.String()),
		slog.String("code", d.Code),
		slog.String("msg", d.Message),
		slog.Any("span", d.Span),
	)
}

func errorDiagnostic(err *lang.Error, fallback lang.Span) Diagnostic {
	span := err.Span()
	if span.IsZero() {
		span = fallback
	}

	return Diagnostic{
		Severity: SeverityError,
		Code:     err.Kind().String(),
		Message:  err.Message(),
		Span:     span,
	}
}
