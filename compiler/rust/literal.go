package rust

import (
	"fmt"
	"math"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

// quote renders s as a Rust string literal.
func quote(s string) string {
	return `"` + escapeString(s) + `"`
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeFormat escapes a literal segment of a format! string.
func escapeFormat(s string) string {
	s = escapeString(s)
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// floatLit renders f as an f64 literal.
func floatLit(f float64) string {
	switch {
	case math.IsNaN(f):
		return "f64::NAN"
	case math.IsInf(f, 1):
		return "f64::INFINITY"
	case math.IsInf(f, -1):
		return "f64::NEG_INFINITY"
	}
	s := ir.FormatNumber(f)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// rawString renders s as a raw string literal with enough hashes to hold it.
func rawString(s string) string {
	hashes := ""
	for strings.Contains(s, `"`+hashes) {
		hashes += "#"
	}
	return "r" + hashes + `"` + s + `"` + hashes
}

// indentTail indents every line of s after the first by one level, for
// embedding a multi-line expression after a prefix.
func indentTail(s string) string {
	return strings.ReplaceAll(s, "\n", "\n"+indentUnit)
}
