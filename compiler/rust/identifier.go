package rust

import (
	"strings"
	"unicode"
)

// Rust strict and reserved keywords.
var keywords = map[string]bool{
	"as":       true,
	"async":    true,
	"await":    true,
	"break":    true,
	"const":    true,
	"continue": true,
	"crate":    true,
	"dyn":      true,
	"else":     true,
	"enum":     true,
	"extern":   true,
	"false":    true,
	"fn":       true,
	"for":      true,
	"if":       true,
	"impl":     true,
	"in":       true,
	"let":      true,
	"loop":     true,
	"match":    true,
	"mod":      true,
	"move":     true,
	"mut":      true,
	"pub":      true,
	"ref":      true,
	"return":   true,
	"self":     true,
	"Self":     true,
	"static":   true,
	"struct":   true,
	"super":    true,
	"trait":    true,
	"true":     true,
	"type":     true,
	"unsafe":   true,
	"use":      true,
	"where":    true,
	"while":    true,
	"abstract": true,
	"become":   true,
	"box":      true,
	"do":       true,
	"final":    true,
	"gen":      true,
	"macro":    true,
	"override": true,
	"priv":     true,
	"try":      true,
	"typeof":   true,
	"unsized":  true,
	"virtual":  true,
	"yield":    true,
}

// escapeKeyword turns a keyword into a raw identifier. The four path
// keywords cannot be raw and get a trailing underscore instead.
func escapeKeyword(name string) string {
	if !keywords[name] {
		return name
	}
	switch name {
	case "self", "Self", "super", "crate":
		return name + "_"
	}
	return "r#" + name
}

// sanitize replaces characters that cannot appear in a Rust identifier.
func sanitize(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// words splits an identifier at underscores and case boundaries:
// "parseHTTPRequest" gives parse, HTTP, Request.
func words(name string) []string {
	var out []string
	rs := []rune(name)
	start := 0
	flush := func(end int) {
		if end > start {
			out = append(out, string(rs[start:end]))
		}
		start = end
	}
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '_' || r == '$' || r == '-' {
			flush(i)
			start = i + 1
			continue
		}
		if i == start || !unicode.IsUpper(r) {
			continue
		}
		prev := rs[i-1]
		nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
			flush(i)
		}
	}
	flush(len(rs))
	return out
}

// snakeCase converts a value name: getUserName → get_user_name.
// Leading underscores survive so private-by-convention names stay distinct.
func snakeCase(name string) string {
	lead := len(name) - len(strings.TrimLeft(name, "_$"))
	ws := words(name)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	out := strings.Repeat("_", lead) + strings.Join(ws, "_")
	if out == "" {
		out = "_"
	}
	return escapeKeyword(sanitize(out))
}

// screamingCase converts a constant name: maxRetries → MAX_RETRIES.
func screamingCase(name string) string {
	ws := words(name)
	for i, w := range ws {
		ws[i] = strings.ToUpper(w)
	}
	out := strings.Join(ws, "_")
	if out == "" {
		out = "_"
	}
	return sanitize(out)
}

// pascalCase converts a variant name: IN_PROGRESS → InProgress, red → Red.
// Names that already start with an upper-case letter and contain lower-case
// letters keep their spelling.
func pascalCase(name string) string {
	rs := []rune(name)
	if len(rs) > 0 && unicode.IsUpper(rs[0]) && strings.IndexFunc(name, unicode.IsLower) >= 0 && !strings.ContainsAny(name, "_$-") {
		return escapeKeyword(sanitize(name))
	}
	var b strings.Builder
	for _, w := range words(name) {
		if isUpperWord(w) {
			w = strings.ToLower(w)
		}
		wr := []rune(w)
		b.WriteRune(unicode.ToUpper(wr[0]))
		b.WriteString(string(wr[1:]))
	}
	out := b.String()
	if out == "" {
		out = "_"
	}
	return escapeKeyword(sanitize(out))
}

// preludeTypes are the std and generated-code names a declared type must
// not shadow.
var preludeTypes = map[string]bool{
	"Any": true, "Box": true, "Dynamic": true, "Err": true, "HashMap": true,
	"HashSet": true, "None": true, "Ok": true, "Option": true, "Regex": true,
	"Result": true, "Some": true, "String": true, "Vec": true,
}

// typeBase is the capitalized spelling of a declared type name.
func typeBase(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	rs := []rune(sanitize(name))
	if rs[0] != '_' {
		rs[0] = unicode.ToUpper(rs[0])
	}
	return string(rs)
}

// typeName converts a declared type name. Type names keep their spelling
// apart from a capitalized first letter; names of prelude types get a
// trailing underscore.
func typeName(name string) string {
	s := typeBase(name)
	if preludeTypes[s] {
		return s + "_"
	}
	return escapeKeyword(s)
}

func isUpperWord(w string) bool {
	return strings.IndexFunc(w, unicode.IsLower) < 0
}

// ModuleName converts a file or directory name into a Rust module name.
func ModuleName(name string) string {
	return snakeCase(name)
}
