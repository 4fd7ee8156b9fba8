// Package ir defines the type descriptors and diagnostics shared by the
// translation pipeline. Descriptors are language-agnostic representations of
// TypeScript type annotations that the Rust generator turns into target types.
package ir

import "fmt"

// Span is a source range used for diagnostics.
type Span struct {
	// File identifies the source buffer. It is only used for reporting.
	File string

	// Start and End are 0-based byte offsets; End is exclusive.
	Start int
	End   int

	// Line and Column are 1-based and describe Start.
	Line   int
	Column int
}

// IsZero returns true if the span carries no location.
func (s Span) IsZero() bool {
	return s.File == "" && s.Start == 0 && s.End == 0 && s.Line == 0 && s.Column == 0
}

// String formats the span as file:line:column.
func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning marks a non-fatal issue; output is still produced.
	SeverityWarning Severity = iota
	// SeverityError marks a fatal lex or parse failure; no output is produced.
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic codes.
const (
	CodeLexError             = "lex_error"
	CodeParseError           = "parse_error"
	CodeMappingConflict      = "mapping_conflict"
	CodeUnsupportedConstruct = "unsupported_construct"
	CodeInheritance          = "inheritance"
	CodeInvalidRegex         = "invalid_regex"
)

// Diagnostic represents an issue encountered while translating one file.
type Diagnostic struct {
	// Severity is Error for fatal lex/parse failures, Warning otherwise.
	Severity Severity `json:"severity"`

	// Code is a machine-readable identifier (see the Code* constants).
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Span is the location that triggered the diagnostic.
	Span Span `json:"span"`
}

// String formats the diagnostic the way compilers usually print them.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Span, d.Severity, d.Message, d.Code)
}

// Warningf builds a warning diagnostic.
func Warningf(code string, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// PositionedError is implemented by the fatal pipeline errors.
type PositionedError interface {
	error
	Pos() Span
	Code() string
}

// ErrorDiagnostic converts a fatal error into its diagnostic form.
func ErrorDiagnostic(err PositionedError) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     err.Code(),
		Message:  err.Error(),
		Span:     err.Pos(),
	}
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Warnings returns only the warning entries.
func (ds Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any entry is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// WithCode returns the entries carrying code.
func (ds Diagnostics) WithCode(code string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}
