package rust

import (
	"bytes"
	"fmt"
	"strings"
)

const indentUnit = "    "

// writer accumulates indented Rust source.
type writer struct {
	buf    bytes.Buffer
	indent int
}

func (w *writer) prefix() string {
	return strings.Repeat(indentUnit, w.indent)
}

// line writes s on its own line. Embedded newlines are indented too.
func (w *writer) line(s string) {
	if s == "" {
		w.buf.WriteByte('\n')
		return
	}
	p := w.prefix()
	for i, l := range strings.Split(s, "\n") {
		if i > 0 {
			w.buf.WriteByte('\n')
		}
		if l != "" {
			w.buf.WriteString(p)
			w.buf.WriteString(l)
		}
	}
	w.buf.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// open writes s and indents the lines that follow.
func (w *writer) open(s string) {
	w.line(s)
	w.indent++
}

// close dedents and writes s.
func (w *writer) close(s string) {
	w.indent--
	w.line(s)
}

// mid writes s one level out, between two indented blocks: "} else {".
func (w *writer) mid(s string) {
	w.indent--
	w.line(s)
	w.indent++
}

// blank separates items with a single empty line.
func (w *writer) blank() {
	b := w.buf.Bytes()
	if len(b) == 0 || bytes.HasSuffix(b, []byte("\n\n")) || bytes.HasSuffix(b, []byte("{\n")) {
		return
	}
	w.buf.WriteByte('\n')
}

func (w *writer) String() string {
	return w.buf.String()
}
