package lang

import (
	"log/slog"
	"strconv"
)

// Position is a location in source text. Offset counts bytes from the start
// of the text; Line and Column are 1-based and Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p was set by the reader.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool { return p.Offset < q.Offset }

// Span is the half-open source range [Start, End).
type Span struct {
	Start Position
	End   Position
}

// IsZero reports whether s carries no location.
func (s Span) IsZero() bool { return !s.Start.IsValid() }

// Contains reports whether offset lies within s. The end offset is included
// so that a cursor placed just after a symbol still refers to it.
func (s Span) Contains(offset int) bool {
	return !s.IsZero() && s.Start.Offset <= offset && offset <= s.End.Offset
}

// Len is the span's length in bytes.
func (s Span) Len() int { return s.End.Offset - s.Start.Offset }

// Join returns the smallest span covering s and t.
func (s Span) Join(t Span) Span {
	switch {
	case s.IsZero():
		return t
	case t.IsZero():
		return s
	}

	if t.Start.Before(s.Start) {
		s.Start = t.Start
	}

	if s.End.Before(t.End) {
		s.End = t.End
	}

	return s
}

func (s Span) String() string {
	if s.IsZero() {
		return "-"
	}

	return s.Start.String() + "-" + s.End.String()
}

// LogValue implements [slog.LogValuer].
func (s Span) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("line", s.Start.Line),
		slog.Int("col", s.Start.Column),
		slog.Int("len", s.Len()),
	)
}
