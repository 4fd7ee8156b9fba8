package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func values(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind != EndOfFile {
			out = append(out, t.Value)
		}
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		values []string
		kinds  []Kind
	}{
		{
			name:   "declaration",
			input:  "let x: number = 42;",
			values: []string{"let", "x", ":", "number", "=", "42", ";"},
			kinds:  []Kind{Keyword, Identifier, Punctuator, Identifier, Operator, NumericLiteral, Punctuator, EndOfFile},
		},
		{
			name:   "comments skipped",
			input:  "a // line\n/* block\n */ b",
			values: []string{"a", "b"},
			kinds:  []Kind{Identifier, Identifier, EndOfFile},
		},
		{
			name:   "numbers",
			input:  "1 1.5 .25 1e3 2.5E-2 0xff 0b101 0o17 1_000_000 10n",
			values: []string{"1", "1.5", "0.25", "1e3", "2.5e-2", "0xff", "0b101", "0o17", "1000000", "10"},
		},
		{
			name:   "string escapes",
			input:  `'it\'s' "a\tb\n" "\x41B\u{43}" "😀"`,
			values: []string{"it's", "a\tb\n", "ABC", "😀"},
		},
		{
			name:   "line continuation",
			input:  "\"a\\\nb\"",
			values: []string{"ab"},
		},
		{
			name:   "longest match operators",
			input:  "a === b !== c ?? d ?. e ... f **= g => h",
			values: []string{"a", "===", "b", "!==", "c", "??", "d", "?.", "e", "...", "f", "**=", "g", "=>", "h"},
		},
		{
			name:   "greater than stays single",
			input:  "Array<Array<T>>= x >>> y",
			values: []string{"Array", "<", "Array", "<", "T", ">", ">", "=", "x", ">", ">", ">", "y"},
		},
		{
			name:   "conditional with leading dot number",
			input:  "a?.5:b",
			values: []string{"a", "?", "0.5", ":", "b"},
		},
		{
			name:   "private name",
			input:  "this.#count",
			values: []string{"this", ".", "count"},
			kinds:  []Kind{Keyword, Punctuator, PrivateName, EndOfFile},
		},
		{
			name:   "contextual keywords are identifiers",
			input:  "type readonly as of",
			kinds:  []Kind{Identifier, Identifier, Identifier, Identifier, EndOfFile},
			values: []string{"type", "readonly", "as", "of"},
		},
		{
			name:   "unicode identifiers",
			input:  "const 名前 = ñandú; let $_x1 = café",
			values: []string{"const", "名前", "=", "ñandú", ";", "let", "$_x1", "=", "café"},
		},
		{
			name:   "regex after assignment",
			input:  "const re = /a[/]b\\/c/gi;",
			values: []string{"const", "re", "=", "a[/]b\\/c", ";"},
			kinds:  []Kind{Keyword, Identifier, Operator, RegexLiteral, Punctuator, EndOfFile},
		},
		{
			name:   "division after identifier",
			input:  "a / b / c",
			values: []string{"a", "/", "b", "/", "c"},
		},
		{
			name:   "division after paren",
			input:  "(a) / 2",
			values: []string{"(", "a", ")", "/", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize("test.ts", tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if got := values(toks); strings.Join(got, " ") != strings.Join(tt.values, " ") || len(got) != len(tt.values) {
				t.Errorf("values = %q, want %q", got, tt.values)
			}
			if tt.kinds != nil {
				got := kinds(toks)
				if len(got) != len(tt.kinds) {
					t.Fatalf("kinds = %v, want %v", got, tt.kinds)
				}
				for i := range got {
					if got[i] != tt.kinds[i] {
						t.Errorf("kind[%d] = %v, want %v", i, got[i], tt.kinds[i])
					}
				}
			}
		})
	}
}

func TestNormalizesIdentifiers(t *testing.T) {
	// "e" followed by a combining acute accent vs precomposed "é".
	toks, err := Tokenize("", "cafe\u0301 caf\u00e9")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Value != toks[1].Value {
		t.Errorf("identifiers not normalized: %q vs %q", toks[0].Value, toks[1].Value)
	}
	if toks[0].Lexeme == toks[0].Value {
		t.Error("Lexeme should keep the raw spelling")
	}
}

func TestRegexFlags(t *testing.T) {
	toks, err := Tokenize("", "x = /ab+c/gu")
	if err != nil {
		t.Fatal(err)
	}
	re := toks[2]
	if re.Kind != RegexLiteral || re.Value != "ab+c" || re.Flags != "gu" {
		t.Errorf("regex = %+v", re)
	}
}

func TestTemplateLiteral(t *testing.T) {
	src := "`Hello, ${user.name}! You have ${count + 1} ${fmt({a: `x${y}`})} items\\n`"
	toks, err := Tokenize("t.ts", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 2 || toks[0].Kind != TemplateLiteral {
		t.Fatalf("tokens = %+v", toks)
	}
	tpl := toks[0].Template
	wantSegs := []string{"Hello, ", "! You have ", " ", " items\n"}
	if len(tpl.Segments) != len(wantSegs) {
		t.Fatalf("segments = %q, want %q", tpl.Segments, wantSegs)
	}
	for i := range wantSegs {
		if tpl.Segments[i] != wantSegs[i] {
			t.Errorf("segment[%d] = %q, want %q", i, tpl.Segments[i], wantSegs[i])
		}
	}
	wantExprs := []string{"user.name", "count + 1", "fmt({a: `x${y}`})"}
	if len(tpl.Exprs) != len(wantExprs) {
		t.Fatalf("exprs = %v", tpl.Exprs)
	}
	for i, span := range tpl.Exprs {
		if got := src[span.Start:span.End]; got != wantExprs[i] {
			t.Errorf("expr[%d] = %q, want %q", i, got, wantExprs[i])
		}
	}
}

func TestNewRange(t *testing.T) {
	src := "`a${x + y}b`"
	toks, err := Tokenize("f.ts", src)
	if err != nil {
		t.Fatal(err)
	}
	span := toks[0].Template.Exprs[0]
	sub, err := collect(NewRange("f.ts", src, span.Start, span.End, span.Line, span.Column))
	if err != nil {
		t.Fatal(err)
	}
	if got := values(sub); strings.Join(got, " ") != "x + y" {
		t.Errorf("values = %q", got)
	}
	if sub[0].Span.Start != span.Start || sub[0].Span.Column != 5 {
		t.Errorf("span = %+v, want absolute offset %d column 5", sub[0].Span, span.Start)
	}
}

func collect(l *Lexer) ([]Token, error) {
	var toks []Token
	for tok, err := range l.All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

func TestSpans(t *testing.T) {
	toks, err := Tokenize("s.ts", "let a = 1;\n  a = \"é\" + b")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		index      int
		line, col  int
		newline    bool
		start, end int
	}{
		{index: 0, line: 1, col: 1, start: 0, end: 3},
		{index: 5, line: 2, col: 3, newline: true, start: 13, end: 14},
		{index: 7, line: 2, col: 7, start: 17, end: 21},
		{index: 9, line: 2, col: 13, start: 24, end: 25},
	}
	for _, tt := range tests {
		tok := toks[tt.index]
		if tok.Span.Line != tt.line || tok.Span.Column != tt.col {
			t.Errorf("token %d %q at %d:%d, want %d:%d", tt.index, tok.Lexeme, tok.Span.Line, tok.Span.Column, tt.line, tt.col)
		}
		if tok.NewlineBefore != tt.newline {
			t.Errorf("token %d NewlineBefore = %v, want %v", tt.index, tok.NewlineBefore, tt.newline)
		}
		if tok.Span.Start != tt.start || tok.Span.End != tt.end {
			t.Errorf("token %d offsets = [%d,%d), want [%d,%d)", tt.index, tok.Span.Start, tok.Span.End, tt.start, tt.end)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
		line   int
		col    int
	}{
		{"unterminated string", `let s = "abc`, "unterminated string literal", 1, 9},
		{"string broken by newline", "let s = 'abc\n'", "unterminated string literal", 1, 9},
		{"unterminated template", "x = `abc ${y}", "unterminated template literal", 1, 5},
		{"unterminated template expression", "x = `abc ${y", "unterminated template literal", 1, 5},
		{"unterminated block comment", "a /* b", "unterminated block comment", 1, 3},
		{"invalid character", "let a = 1;\nlet b = §;", "invalid character", 2, 9},
		{"identifier after number", "3in", "identifier starts immediately after numeric literal", 1, 1},
		{"bad separator", "1__0", "numeric separators", 1, 1},
		{"bad hex escape", `"\xZZ"`, "invalid hexadecimal escape", 1, 2},
		{"unterminated regex", "x = /abc\n", "unterminated regular expression", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize("bad.ts", tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("error %T is not *LexError", err)
			}
			if !strings.Contains(lexErr.Reason, tt.reason) {
				t.Errorf("Reason = %q, want to contain %q", lexErr.Reason, tt.reason)
			}
			if lexErr.Span.Line != tt.line || lexErr.Span.Column != tt.col {
				t.Errorf("position = %d:%d, want %d:%d", lexErr.Span.Line, lexErr.Span.Column, tt.line, tt.col)
			}
			var pe ir.PositionedError = lexErr
			if pe.Code() != ir.CodeLexError || pe.Pos().File != "bad.ts" {
				t.Errorf("Code() = %q, Pos() = %v", pe.Code(), pe.Pos())
			}
		})
	}
}

func TestRestartable(t *testing.T) {
	l := New("", "class A { x = `v${1}`; }")
	first, err := collect(l)
	if err != nil {
		t.Fatal(err)
	}
	second, err := collect(l)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("len = %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Lexeme != second[i].Lexeme || first[i].Span != second[i].Span {
			t.Errorf("token %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestNextAfterEnd(t *testing.T) {
	l := New("", "a")
	for range 3 {
		if _, err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
	tok, _ := l.Next()
	if tok.Kind != EndOfFile {
		t.Errorf("Kind = %v, want EndOfFile", tok.Kind)
	}
}
