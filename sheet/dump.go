package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// treeWriter accumulates indented lines of a debug dump.
type treeWriter struct {
	w *strings.Builder
}

func newTreeWriter() *treeWriter {
	return &treeWriter{w: &strings.Builder{}}
}

func (tw treeWriter) String() string {
	return tw.w.String()
}

func (tw treeWriter) line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw treeWriter) value(depth int, label, value string) {
	tw.line(depth, "%s: %s", label, quoteNonEmpty(value))
}

func quoteNonEmpty(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

// Dump renders the rule tree of the sheet with declared names, effective
// selectors and declarations left on every rule. Intended for debug reports.
func (s *Sheet) Dump() string {
	tw := newTreeWriter()
	tw.line(0, "sheet id=%q named=%t rules=%d", s.ID(), s.Named(), len(s.Rules()))
	for _, name := range s.ClassNames() {
		class, _ := s.Class(name)
		tw.line(1, "class %q -> %q", name, class)
	}
	for _, r := range s.Rules() {
		dumpRule(tw, 1, r)
	}
	return tw.String()
}

func dumpRule(tw *treeWriter, depth int, r *Rule) {
	tw.line(depth, "%s %q", r.Kind, r.Key)
	if r.Name != "" {
		tw.value(depth+1, "name", r.Name)
	}
	if r.Selector != r.Key {
		tw.value(depth+1, "selector", r.Selector)
	}
	if r.Kind == KindConditional {
		for _, inner := range r.Block.Rules() {
			dumpRule(tw, depth+1, inner)
		}
		return
	}
	dumpStyle(tw, depth+1, r.Style)
}

func dumpStyle(tw *treeWriter, depth int, st *Style) {
	for _, prop := range st.Props() {
		v, _ := st.Get(prop)
		if v.IsNested() {
			tw.line(depth, "%q {", prop)
			dumpStyle(tw, depth+1, v.Nested)
			tw.line(depth, "}")
			continue
		}
		tw.value(depth, prop, v.Raw)
	}
}
