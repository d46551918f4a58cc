// Package selector tokenizes style sheet selectors into local and escaped
// parts and rewrites class atoms found in the local ones.
//
// A selector may wrap any part of itself into the escape function
// global(...). Text inside the call is emitted verbatim (without the wrapper)
// and is never subject to class rewriting. The argument may contain
// parenthesized groups one level deep, for example global(.b:not(.c)).
package selector

import "strings"

const (
	// EscapeFunc is the name of the escape function call.
	EscapeFunc = "global"
	// ParentMarker references the enclosing rule selector in nested property names.
	ParentMarker = "&"

	escapeOpen = EscapeFunc + "("
)

// Part is a single piece of a split selector: local text optionally followed
// by the argument of one escape call.
type Part struct {
	Local     string // text subject to rewriting, may be empty
	Escaped   string // verbatim argument of global(...)
	HasEscape bool   // false only for the trailing remainder
}

// Split breaks s into parts. Concatenating Local+Escaped of all parts
// reproduces s with every global(...) wrapper removed.
func Split(s string) []Part {
	var parts []Part

	start := 0
	for i := 0; i < len(s); {
		if !strings.HasPrefix(s[i:], escapeOpen) {
			i++
			continue
		}
		argStart := i + len(escapeOpen)
		argEnd, ok := scanArgument(s, argStart)
		if !ok {
			// not an escape call, treat as ordinary text
			i++
			continue
		}
		parts = append(parts, Part{Local: s[start:i], Escaped: s[argStart:argEnd], HasEscape: true})
		start = argEnd + 1
		i = start
	}
	if start < len(s) {
		parts = append(parts, Part{Local: s[start:]})
	}
	return parts
}

// scanArgument returns position of the closing parenthesis of an escape
// call whose argument starts at pos. Only one level of nested parentheses is
// accepted inside the argument.
func scanArgument(s string, pos int) (int, bool) {
	depth := 0
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '(':
			if depth > 0 {
				return 0, false
			}
			depth++
		case ')':
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

// Join reassembles parts applying fn to local text only.
func Join(parts []Part, fn func(local string) (string, error)) (string, error) {
	var b strings.Builder
	for _, p := range parts {
		local, err := fn(p.Local)
		if err != nil {
			return "", err
		}
		b.WriteString(local)
		b.WriteString(p.Escaped)
	}
	return b.String(), nil
}

// IsWordByte reports whether b belongs to a class atom word: [A-Za-z0-9_].
func IsWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// RewriteClasses replaces every class atom (a dot followed by a run of word
// characters) in local with the result of fn applied to the atom's word.
// Everything else is copied unchanged. The first error from fn is returned.
func RewriteClasses(local string, fn func(name string) (string, error)) (string, error) {
	var b strings.Builder
	b.Grow(len(local))

	for i := 0; i < len(local); {
		if local[i] != '.' {
			b.WriteByte(local[i])
			i++
			continue
		}
		j := i + 1
		for j < len(local) && IsWordByte(local[j]) {
			j++
		}
		if j == i+1 {
			// lone dot
			b.WriteByte('.')
			i++
			continue
		}
		repl, err := fn(local[i+1 : j])
		if err != nil {
			return "", err
		}
		b.WriteString(repl)
		i = j
	}
	return b.String(), nil
}

// RewriteLocal rewrites class atoms of sel outside of escape calls. Escaped
// arguments are copied verbatim and the escape wrappers are dropped.
func RewriteLocal(sel string, fn func(name string) (string, error)) (string, error) {
	return Join(Split(sel), func(local string) (string, error) {
		return RewriteClasses(local, fn)
	})
}

// ReplaceParent substitutes every parent marker in prop with parent. Runs of
// dots in front of a word are collapsed afterwards so that a parent built as
// "." + name composes with a name which already starts with a dot.
func ReplaceParent(prop, parent string) string {
	if !strings.Contains(prop, ParentMarker) {
		return prop
	}
	return collapseDots(strings.ReplaceAll(prop, ParentMarker, parent))
}

func collapseDots(s string) string {
	if !strings.Contains(s, "..") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '.' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '.' {
			j++
		}
		if j < len(s) && IsWordByte(s[j]) {
			b.WriteByte('.')
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}
