// Package lexer turns TypeScript source text into tokens.
//
// Tokens are produced lazily by Next in a single left-to-right pass. A Lexer
// can be restarted with Reset and always yields the same sequence for the same
// input. Comments and whitespace are skipped; line terminators are recorded on
// the following token for automatic semicolon insertion.
package lexer

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

const eof = -1

// Lexer produces tokens from one source buffer.
type Lexer struct {
	file string
	src  string

	// bounds of the lexed range and the position of its first byte
	start, end          int
	startLine, startCol int

	pos  int
	line int
	col  int

	prev    Token
	hasPrev bool
	err     error
}

// New returns a Lexer over the whole of src. The file name is only used in spans.
func New(file, src string) *Lexer {
	return NewRange(file, src, 0, len(src), 1, 1)
}

// NewRange returns a Lexer over src[start:end]. Spans keep absolute offsets
// into src; line and col give the position of start. The parser uses it to
// lex the embedded expressions of template literals.
func NewRange(file, src string, start, end, line, col int) *Lexer {
	l := &Lexer{
		file:      file,
		src:       src,
		start:     start,
		end:       end,
		startLine: line,
		startCol:  col,
	}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the beginning of its range.
func (l *Lexer) Reset() {
	l.pos = l.start
	l.line = l.startLine
	l.col = l.startCol
	l.prev = Token{}
	l.hasPrev = false
	l.err = nil
}

// Tokenize lexes the whole source, including the trailing EndOfFile token.
func Tokenize(file, src string) ([]Token, error) {
	var toks []Token
	for tok, err := range New(file, src).All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// All restarts the lexer and yields every token up to and including
// EndOfFile, or up to the first error.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l.Reset()
		for {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil || tok.Kind == EndOfFile {
				return
			}
		}
	}
}

// Next returns the next token. Once the end is reached it keeps returning
// EndOfFile; once an error occurred it keeps returning that error.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	newline, err := l.skipTrivia()
	if err != nil {
		l.err = err
		return Token{}, err
	}
	if l.pos >= l.end {
		return Token{
			Kind:          EndOfFile,
			NewlineBefore: newline,
			Span:          ir.Span{File: l.file, Start: l.pos, End: l.pos, Line: l.line, Column: l.col},
		}, nil
	}

	start, line, col := l.pos, l.line, l.col
	tok, err := l.scan(start, line, col)
	if err != nil {
		l.err = err
		return Token{}, err
	}
	tok.Lexeme = l.src[start:l.pos]
	tok.NewlineBefore = newline
	tok.Span = ir.Span{File: l.file, Start: start, End: l.pos, Line: line, Column: col}
	l.prev, l.hasPrev = tok, true
	return tok, nil
}

func (l *Lexer) scan(start, line, col int) (Token, error) {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:l.end])
	switch {
	case r == utf8.RuneError && size == 1:
		return Token{}, l.errorAt(start, line, col, "invalid UTF-8 encoding")
	case isIdentStart(r):
		return l.scanIdentifier(), nil
	case isDecimal(r), r == '.' && isDecimal(rune(l.byteAt(1))):
		return l.scanNumber(start, line, col)
	case r == '"' || r == '\'':
		return l.scanString(start, line, col)
	case r == '`':
		return l.scanTemplate(start, line, col)
	case r == '#':
		l.advance()
		if !isIdentStart(l.peek()) {
			return Token{}, l.errorAt(start, line, col, "invalid character '#'")
		}
		name := l.scanIdentifier()
		return Token{Kind: PrivateName, Value: name.Value}, nil
	case r == '/' && l.regexAllowed():
		return l.scanRegex(start, line, col)
	}
	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:l.end], p) {
			if p == "?." && isDecimal(rune(l.byteAt(2))) {
				// a ? .5 : b
				continue
			}
			for range len(p) {
				l.advance()
			}
			kind := Operator
			if punctuatorKinds[p] {
				kind = Punctuator
			}
			return Token{Kind: kind, Value: p}, nil
		}
	}
	return Token{}, l.errorAt(start, line, col, "invalid character %q (U+%04X)", r, r)
}

// '>' is never combined with following characters so that nested generic
// argument lists close one bracket at a time. The parser reassembles >=, >>,
// >>>, >>= and >>>= from adjacent tokens.
var punctuators = []string{
	"...", "===", "!==", "**=", "<<=", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-",
	"*", "/", "%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@",
}

var punctuatorKinds = map[string]bool{
	"{": true, "}": true, "(": true, ")": true, "[": true, "]": true,
	";": true, ",": true, ".": true, "...": true, ":": true, "?": true,
	"?.": true, "=>": true, "@": true,
}

// skipTrivia skips whitespace and comments and reports whether a line
// terminator was crossed.
func (l *Lexer) skipTrivia() (bool, error) {
	newline := false
	if l.pos == 0 && strings.HasPrefix(l.src[:l.end], "#!") {
		for l.pos < l.end && l.peek() != '\n' {
			l.advance()
		}
	}
	for l.pos < l.end {
		r := l.peek()
		switch {
		case r == '\n' || r == '\u2028' || r == '\u2029':
			newline = true
			l.advance()
		case isSpace(r):
			l.advance()
		case r == '/' && l.byteAt(1) == '/':
			for l.pos < l.end && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.byteAt(1) == '*':
			start, line, col := l.pos, l.line, l.col
			l.advance()
			l.advance()
			closed := false
			for l.pos < l.end {
				if l.peek() == '*' && l.byteAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				if l.advance() == '\n' {
					newline = true
				}
			}
			if !closed {
				return newline, l.errorAt(start, line, col, "unterminated block comment")
			}
		default:
			return newline, nil
		}
	}
	return newline, nil
}

func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	l.advance()
	for l.pos < l.end && isIdentPart(l.peek()) {
		l.advance()
	}
	name := norm.NFC.String(l.src[start:l.pos])
	if keywords[name] {
		return Token{Kind: Keyword, Value: name}
	}
	return Token{Kind: Identifier, Value: name}
}

func (l *Lexer) scanNumber(start, line, col int) (Token, error) {
	var value string
	if l.peek() == '0' && strings.ContainsRune("xXoObB", rune(l.byteAt(1))) && l.byteAt(1) != 0 {
		prefix := strings.ToLower(string(l.byteAt(1)))
		base := map[string]int{"x": 16, "o": 8, "b": 2}[prefix]
		l.advance()
		l.advance()
		digits, err := l.readDigits(base, start, line, col)
		if err != nil {
			return Token{}, err
		}
		if digits == "" {
			return Token{}, l.errorAt(start, line, col, "missing digits after 0%s", prefix)
		}
		value = "0" + prefix + digits
	} else {
		intPart, err := l.readDigits(10, start, line, col)
		if err != nil {
			return Token{}, err
		}
		value = intPart
		if l.peek() == '.' {
			l.advance()
			frac, err := l.readDigits(10, start, line, col)
			if err != nil {
				return Token{}, err
			}
			if intPart == "" {
				intPart = "0"
			}
			value = intPart + "." + frac
		}
		if (l.peek() == 'e' || l.peek() == 'E') &&
			(isDecimal(rune(l.byteAt(1))) || (strings.ContainsRune("+-", rune(l.byteAt(1))) && isDecimal(rune(l.byteAt(2))))) {
			value += "e"
			l.advance()
			if c := l.peek(); c == '+' || c == '-' {
				value += string(c)
				l.advance()
			}
			exp, err := l.readDigits(10, start, line, col)
			if err != nil {
				return Token{}, err
			}
			value += exp
		}
	}
	if l.peek() == 'n' {
		// BigInt suffix; the value stays the digits.
		l.advance()
	}
	if r := l.peek(); r != eof && (isIdentStart(r) || isDecimal(r)) {
		return Token{}, l.errorAt(start, line, col, "identifier starts immediately after numeric literal")
	}
	return Token{Kind: NumericLiteral, Value: value}, nil
}

// readDigits reads digits of base, dropping numeric separators.
func (l *Lexer) readDigits(base, start, line, col int) (string, error) {
	var b strings.Builder
	for l.pos < l.end {
		c := l.byteAt(0)
		if c == '_' {
			if b.Len() == 0 || !isDigitOf(l.byteAt(1), base) {
				return "", l.errorAt(start, line, col, "numeric separators are only allowed between digits")
			}
			l.advance()
			continue
		}
		if !isDigitOf(c, base) {
			break
		}
		b.WriteByte(c)
		l.advance()
	}
	return b.String(), nil
}

func (l *Lexer) scanString(start, line, col int) (Token, error) {
	quote := l.advance()
	var b strings.Builder
	for {
		if l.pos >= l.end {
			return Token{}, l.errorAt(start, line, col, "unterminated string literal")
		}
		switch r := l.peek(); r {
		case quote:
			l.advance()
			return Token{Kind: StringLiteral, Value: b.String()}, nil
		case '\n', '\r':
			return Token{}, l.errorAt(start, line, col, "unterminated string literal")
		case '\\':
			if err := l.readEscape(&b); err != nil {
				return Token{}, err
			}
		default:
			b.WriteRune(l.advance())
		}
	}
}

// readEscape consumes a backslash escape and writes its cooked value.
func (l *Lexer) readEscape(b *strings.Builder) error {
	start, line, col := l.pos, l.line, l.col
	l.advance() // '\'
	if l.pos >= l.end {
		return nil
	}
	r := l.advance()
	switch r {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		if isDecimal(l.peek()) {
			return l.errorAt(start, line, col, "octal escape sequences are not allowed")
		}
		b.WriteByte(0)
	case 'x':
		cp, ok := l.readHex(2)
		if !ok {
			return l.errorAt(start, line, col, "invalid hexadecimal escape sequence")
		}
		b.WriteRune(cp)
	case 'u':
		cp, err := l.readUnicodeEscape(start, line, col)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(cp) && l.byteAt(0) == '\\' && l.byteAt(1) == 'u' {
			save, saveLine, saveCol := l.pos, l.line, l.col
			l.advance()
			l.advance()
			lo, err := l.readUnicodeEscape(start, line, col)
			if err == nil && utf16.DecodeRune(cp, lo) != unicode.ReplacementChar {
				b.WriteRune(utf16.DecodeRune(cp, lo))
				return nil
			}
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
		b.WriteRune(cp)
	case '\r':
		if l.peek() == '\n' {
			l.advance()
		}
	case '\n', '\u2028', '\u2029':
		// line continuation
	default:
		b.WriteRune(r)
	}
	return nil
}

func (l *Lexer) readUnicodeEscape(start, line, col int) (rune, error) {
	if l.peek() == '{' {
		l.advance()
		digits := 0
		var cp rune
		for l.pos < l.end && l.peek() != '}' {
			v, ok := hexValue(l.byteAt(0))
			if !ok {
				return 0, l.errorAt(start, line, col, "invalid Unicode escape sequence")
			}
			cp = cp*16 + v
			digits++
			if cp > unicode.MaxRune {
				return 0, l.errorAt(start, line, col, "Unicode escape out of range")
			}
			l.advance()
		}
		if l.pos >= l.end || digits == 0 {
			return 0, l.errorAt(start, line, col, "invalid Unicode escape sequence")
		}
		l.advance()
		return cp, nil
	}
	cp, ok := l.readHex(4)
	if !ok {
		return 0, l.errorAt(start, line, col, "invalid Unicode escape sequence")
	}
	return cp, nil
}

func (l *Lexer) readHex(n int) (rune, bool) {
	var cp rune
	for range n {
		v, ok := hexValue(l.byteAt(0))
		if !ok || l.pos >= l.end {
			return 0, false
		}
		cp = cp*16 + v
		l.advance()
	}
	return cp, true
}

func (l *Lexer) scanTemplate(start, line, col int) (Token, error) {
	l.advance() // '`'
	tpl := &Template{}
	var seg strings.Builder
	for {
		if l.pos >= l.end {
			return Token{}, l.errorAt(start, line, col, "unterminated template literal")
		}
		switch r := l.peek(); {
		case r == '`':
			l.advance()
			tpl.Segments = append(tpl.Segments, seg.String())
			return Token{Kind: TemplateLiteral, Template: tpl}, nil
		case r == '\\':
			if err := l.readEscape(&seg); err != nil {
				return Token{}, err
			}
		case r == '$' && l.byteAt(1) == '{':
			l.advance()
			l.advance()
			tpl.Segments = append(tpl.Segments, seg.String())
			seg.Reset()
			exprStart, exprLine, exprCol := l.pos, l.line, l.col
			ok, err := l.skipBalanced()
			if err != nil {
				return Token{}, err
			}
			if !ok {
				return Token{}, l.errorAt(start, line, col, "unterminated template literal")
			}
			tpl.Exprs = append(tpl.Exprs, ir.Span{
				File:   l.file,
				Start:  exprStart,
				End:    l.pos,
				Line:   exprLine,
				Column: exprCol,
			})
			l.advance() // '}'
		case r == '\r':
			l.advance()
			if l.peek() == '\n' {
				l.advance()
			}
			seg.WriteByte('\n')
		default:
			seg.WriteRune(l.advance())
		}
	}
}

// skipBalanced advances to the '}' closing a template substitution without
// consuming it. Nested braces, strings, templates and comments are skipped.
func (l *Lexer) skipBalanced() (bool, error) {
	depth := 0
	for l.pos < l.end {
		switch r := l.peek(); {
		case r == '{':
			depth++
			l.advance()
		case r == '}':
			if depth == 0 {
				return true, nil
			}
			depth--
			l.advance()
		case r == '"' || r == '\'':
			start, line, col := l.pos, l.line, l.col
			if _, err := l.scanString(start, line, col); err != nil {
				return false, err
			}
		case r == '`':
			start, line, col := l.pos, l.line, l.col
			if _, err := l.scanTemplate(start, line, col); err != nil {
				return false, err
			}
		case r == '/' && l.byteAt(1) == '/':
			for l.pos < l.end && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.byteAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < l.end && (l.peek() != '*' || l.byteAt(1) != '/') {
				l.advance()
			}
			l.advance()
			l.advance()
		default:
			l.advance()
		}
	}
	return false, nil
}

// regexAllowed reports whether a '/' at the current position starts a
// regular expression, which is the case wherever an expression may start.
func (l *Lexer) regexAllowed() bool {
	if !l.hasPrev {
		return true
	}
	switch l.prev.Kind {
	case Identifier, NumericLiteral, StringLiteral, TemplateLiteral, RegexLiteral, PrivateName:
		return false
	case Keyword:
		switch l.prev.Value {
		case "this", "super", "null", "true", "false":
			return false
		}
		return true
	default:
		switch l.prev.Value {
		case ")", "]", "}", "++", "--":
			return false
		}
		return true
	}
}

func (l *Lexer) scanRegex(start, line, col int) (Token, error) {
	l.advance() // '/'
	inClass := false
	for {
		if l.pos >= l.end || l.peek() == '\n' {
			return Token{}, l.errorAt(start, line, col, "unterminated regular expression literal")
		}
		r := l.advance()
		switch {
		case r == '\\':
			if l.pos >= l.end || l.peek() == '\n' {
				return Token{}, l.errorAt(start, line, col, "unterminated regular expression literal")
			}
			l.advance()
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case r == '/' && !inClass:
			pattern := l.src[start+1 : l.pos-1]
			flagStart := l.pos
			for l.pos < l.end && isIdentPart(l.peek()) {
				l.advance()
			}
			return Token{Kind: RegexLiteral, Value: pattern, Flags: l.src[flagStart:l.pos]}, nil
		}
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= l.end {
		return eof
	}
	c := l.src[l.pos]
	if c < utf8.RuneSelf {
		return rune(c)
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:l.end])
	return r
}

// byteAt returns the byte at offset n from the current position, or 0.
func (l *Lexer) byteAt(n int) byte {
	if l.pos+n >= l.end {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() rune {
	if l.pos >= l.end {
		return eof
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:l.end])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) errorAt(start, line, col int, format string, args ...any) *LexError {
	end := l.pos
	if end < start {
		end = start
	}
	return &LexError{
		Span:   ir.Span{File: l.file, Start: start, End: end, Line: line, Column: col},
		Reason: fmt.Sprintf(format, args...),
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\v', '\f', '\r', '\u00a0', '\ufeff':
		return true
	}
	return r > unicode.MaxASCII && unicode.Is(unicode.Zs, r)
}

func isIdentStart(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '$' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIdentPart(r rune) bool {
	if isIdentStart(r) || isDecimal(r) {
		return true
	}
	if r < utf8.RuneSelf {
		return false
	}
	return unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) || r == '\u200c' || r == '\u200d'
}

func isDecimal(r rune) bool { return '0' <= r && r <= '9' }

func isDigitOf(c byte, base int) bool {
	v, ok := hexValue(c)
	return ok && int(v) < base
}

func hexValue(c byte) (rune, bool) {
	v, err := strconv.ParseUint(string(c), 16, 8)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
