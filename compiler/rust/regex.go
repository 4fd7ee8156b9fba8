package rust

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// backtracking matches the pattern features the regex crate lacks.
var backtracking = regexp.MustCompile(`\(\?<?[=!]|\\[1-9]|\\k<`)

// regex translates a regular expression literal into a lazily compiled
// regex::Regex. The pattern is checked with an ECMAScript engine first;
// invalid patterns are reported and replaced by a placeholder.
func (g *Generator) regex(x *ast.RegexLit) string {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	var inline string
	for _, f := range x.Flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
			inline += "i"
		case 'm':
			opts |= regexp2.Multiline
			inline += "m"
		case 's':
			inline += "s"
		}
	}
	if _, err := regexp2.Compile(x.Pattern, opts); err != nil {
		g.warn(ir.CodeInvalidRegex, x.Span, "invalid regular expression /%s/: %v", x.Pattern, err)
		return "/* invalid regex */ todo!()"
	}
	if backtracking.MatchString(x.Pattern) {
		g.warn(ir.CodeUnsupportedConstruct, x.Span, "regular expression /%s/ uses lookaround or backreferences, which the regex crate does not support", x.Pattern)
	}
	if strings.ContainsRune(x.Flags, 'y') {
		g.warn(ir.CodeUnsupportedConstruct, x.Span, "sticky regular expressions are not supported; flag ignored")
	}
	g.usesRegex = true
	g.use("regex::Regex")
	pattern := x.Pattern
	if inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}
	return "Regex::new(" + rawString(pattern) + ").unwrap()"
}
