package lexer

import (
	"fmt"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

// Kind is the category of a token.
type Kind int

const (
	EndOfFile Kind = iota
	Identifier
	Keyword
	NumericLiteral
	StringLiteral
	TemplateLiteral
	RegexLiteral
	PrivateName // #field
	Punctuator
	Operator
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case EndOfFile:
		return "end of file"
	case Identifier:
		return "identifier"
	case Keyword:
		return "keyword"
	case NumericLiteral:
		return "number"
	case StringLiteral:
		return "string"
	case TemplateLiteral:
		return "template literal"
	case RegexLiteral:
		return "regular expression"
	case PrivateName:
		return "private name"
	case Punctuator:
		return "punctuator"
	case Operator:
		return "operator"
	default:
		return "invalid"
	}
}

// Token is an immutable lexical token.
type Token struct {
	Kind Kind

	// Lexeme is the raw source text of the token.
	Lexeme string

	// Value is the cooked value: the NFC-normalized name for identifiers and
	// keywords, the unescaped text for strings, the digits without separators
	// for numbers, the pattern for regular expressions.
	Value string

	// Flags holds regular expression flags.
	Flags string

	// Template is set for TemplateLiteral tokens.
	Template *Template

	// NewlineBefore reports a line terminator between this token and the
	// previous one.
	NewlineBefore bool

	Span ir.Span
}

// Is reports whether the token is a keyword, punctuator or operator spelled lexeme.
func (t Token) Is(lexeme string) bool {
	switch t.Kind {
	case Keyword, Punctuator, Operator:
		return t.Lexeme == lexeme
	}
	return false
}

// IsIdent reports whether the token is the identifier name.
// Used for contextual keywords such as "type", "as" or "readonly".
func (t Token) IsIdent(name string) bool {
	return t.Kind == Identifier && t.Value == name
}

// Describe returns a short description for "expected X, found Y" messages.
func (t Token) Describe() string {
	switch t.Kind {
	case EndOfFile:
		return "end of file"
	case Identifier:
		return fmt.Sprintf("identifier %q", t.Value)
	case StringLiteral, NumericLiteral, TemplateLiteral, RegexLiteral:
		return fmt.Sprintf("%s %s", t.Kind, t.Lexeme)
	default:
		return fmt.Sprintf("%q", t.Lexeme)
	}
}

// Template carries the pieces of a backtick literal. Segments always has
// exactly one more element than Exprs: text, expr, text, expr, ..., text.
type Template struct {
	// Segments are the cooked literal pieces.
	Segments []string

	// Exprs locate the source of each embedded ${...} expression; the parser
	// re-lexes these ranges.
	Exprs []ir.Span
}

// reserved words are always keywords. Contextual words (type, as, of, get,
// readonly, ...) stay identifiers and are recognized by the parser.
var keywords = map[string]bool{
	"break":      true,
	"case":       true,
	"catch":      true,
	"class":      true,
	"const":      true,
	"continue":   true,
	"debugger":   true,
	"default":    true,
	"delete":     true,
	"do":         true,
	"else":       true,
	"enum":       true,
	"export":     true,
	"extends":    true,
	"false":      true,
	"finally":    true,
	"for":        true,
	"function":   true,
	"if":         true,
	"implements": true,
	"import":     true,
	"in":         true,
	"instanceof": true,
	"interface":  true,
	"let":        true,
	"new":        true,
	"null":       true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"return":     true,
	"static":     true,
	"super":      true,
	"switch":     true,
	"this":       true,
	"throw":      true,
	"true":       true,
	"try":        true,
	"typeof":     true,
	"var":        true,
	"void":       true,
	"while":      true,
	"with":       true,
	"yield":      true,
}

// IsKeyword reports whether name is lexed as a keyword.
func IsKeyword(name string) bool {
	return keywords[name]
}

// LexError is a fatal lexical error.
type LexError struct {
	Span   ir.Span
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Span, e.Reason)
}

// Pos returns the error location.
func (e *LexError) Pos() ir.Span { return e.Span }

// Code returns ir.CodeLexError.
func (e *LexError) Code() string { return ir.CodeLexError }
