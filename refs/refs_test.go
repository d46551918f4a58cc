package refs_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"stylec/refs"
	"stylec/sheet"
)

// decl builds style from property/value pairs, values are either strings or
// nested styles.
func decl(kv ...any) *sheet.Style {
	st := sheet.NewStyle()
	for i := 0; i+1 < len(kv); i += 2 {
		prop := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			st.SetRaw(prop, v)
		case *sheet.Style:
			st.Nest(prop, v)
		}
	}
	return st
}

func newRegistry(t *testing.T, opts ...refs.Option) *sheet.Registry {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	return sheet.NewRegistry(log).Use(refs.New(log, opts...).Plugin())
}

func createSheet(t *testing.T, g *sheet.Registry, decls *sheet.Style, named bool) *sheet.Sheet {
	t.Helper()
	s, err := g.CreateStyleSheet(decls, sheet.SheetOptions{Named: named})
	if err != nil {
		t.Fatalf("CreateStyleSheet() error = %v", err)
	}
	return s
}

func class(t *testing.T, s *sheet.Sheet, name string) string {
	t.Helper()
	c, ok := s.Class(name)
	if !ok {
		t.Fatalf("no class for %q", name)
	}
	return c
}

func checkClassNames(t *testing.T, s *sheet.Sheet, want ...string) {
	t.Helper()
	if got := s.ClassNames(); !slices.Equal(got, want) {
		t.Errorf("ClassNames() = %q, want %q", got, want)
	}
}

func checkRules(t *testing.T, s *sheet.Sheet, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if s.GetRule(key) == nil {
			t.Errorf("GetRule(%q) = nil", key)
		}
	}
}

func checkCSS(t *testing.T, s *sheet.Sheet, want string) {
	t.Helper()
	if got := s.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestResolveLocalClassNames(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("padding", "0"),
		"b", decl("color", "black"),
		".a:hover > .b", decl("color", "red"),
	), true)

	checkRules(t, s, "a", "b")
	checkClassNames(t, s, "a", "b")
	a, b := class(t, s, "a"), class(t, s, "b")
	if a != "a-0-0" || b != "b-0-1" {
		t.Errorf("classes = %q, %q, want a-0-0, b-0-1", a, b)
	}
	checkCSS(t, s, ".a-0-0 {\n  padding: 0;\n}\n.b-0-1 {\n  color: black;\n}\n.a-0-0:hover > .b-0-1 {\n  color: red;\n}")
}

func TestResolveInNestedSelector(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("padding", "0"),
		"b", decl(
			"color", "black",
			".a:hover > &", decl("color", "red"),
		),
	), true)

	checkRules(t, s, "a", "b")
	checkClassNames(t, s, "a", "b")
	checkCSS(t, s, ".a-0-0 {\n  padding: 0;\n}\n.b-0-1 {\n  color: black;\n}\n.a-0-0:hover > .b-0-1 {\n  color: red;\n}")
}

func TestReferenceToLaterRule(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl(
			"padding", "0",
			"&:hover > .b", decl("color", "red"),
		),
		"b", decl("color", "black"),
	), true)

	checkRules(t, s, "a", "b")
	checkClassNames(t, s, "a", "b")
	checkCSS(t, s, ".a-0-0 {\n  padding: 0;\n}\n.b-0-1 {\n  color: black;\n}\n.a-0-0:hover > .b-0-1 {\n  color: red;\n}")
}

func TestGlobalSelectors(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl(
			"padding", "0",
			"&:hover > global(.b:not(.c))", decl("color", "red"),
		),
	), true)

	checkRules(t, s, "a")
	checkClassNames(t, s, "a")
	checkCSS(t, s, ".a-0-0 {\n  padding: 0;\n}\n.a-0-0:hover > .b:not(.c) {\n  color: red;\n}")
}

func TestGlobalSelectorTopLevel(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"global(.b:not(.c))", decl("color", "red"),
	), true)

	checkClassNames(t, s)
	checkCSS(t, s, ".b:not(.c) {\n  color: red;\n}")
}

func TestGlobalPrefixedByLocal(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("margin", "0"),
		".a global(.x .y) .a", decl("color", "red"),
	), true)

	checkCSS(t, s, ".a-0-0 {\n  margin: 0;\n}\n.a-0-0 .x .y .a-0-0 {\n  color: red;\n}")
}

func TestNesting(t *testing.T) {
	tests := []struct {
		name  string
		decls *sheet.Style
		rules []string
		want  string
	}{
		{
			name:  "with space",
			decls: decl("a", decl("float", "left", "& b", decl("float", "left"))),
			rules: []string{"a", "a b"},
			want:  "a {\n  float: left;\n}\na b {\n  float: left;\n}",
		},
		{
			name:  "without space",
			decls: decl("a", decl("float", "left", "&b", decl("float", "left"))),
			rules: []string{"a", "ab"},
			want:  "a {\n  float: left;\n}\nab {\n  float: left;\n}",
		},
		{
			name: "multiple",
			decls: decl("a", decl(
				"float", "left",
				"&b", decl("float", "left"),
				"& c", decl("float", "left"),
			)),
			rules: []string{"a", "ab", "a c"},
			want:  "a {\n  float: left;\n}\nab {\n  float: left;\n}\na c {\n  float: left;\n}",
		},
		{
			name:  "multiple in one selector",
			decls: decl("a", decl("float", "left", "&b, &c", decl("float", "left"))),
			rules: []string{"a", "ab, ac"},
			want:  "a {\n  float: left;\n}\nab, ac {\n  float: left;\n}",
		},
		{
			name: "deep",
			decls: decl("a", decl(
				"float", "left",
				"&b", decl(
					"float", "left",
					"&c", decl("float", "left"),
				),
			)),
			rules: []string{"a", "ab", "abc"},
			want:  "a {\n  float: left;\n}\nab {\n  float: left;\n}\nabc {\n  float: left;\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newRegistry(t)
			s := createSheet(t, g, tt.decls, false)
			checkRules(t, s, tt.rules...)
			checkCSS(t, s, tt.want)
		})
	}
}

func TestAddRules(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl("a", decl("height", "1px")), false)

	err := s.AddRules(decl(
		"b", decl(
			"height", "2px",
			"& c", decl("height", "3px"),
		),
	))
	if err != nil {
		t.Fatalf("AddRules() error = %v", err)
	}
	checkCSS(t, s, "a {\n  height: 1px;\n}\nb {\n  height: 2px;\n}\nb c {\n  height: 3px;\n}")
}

func TestNestingInNamedRule(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("float", "left", "& b", decl("float", "left")),
	), true)

	checkRules(t, s, "a", ".a b")
	checkClassNames(t, s, "a")
	checkCSS(t, s, ".a-0-0 {\n  float: left;\n}\n.a-0-0 b {\n  float: left;\n}")
}

func TestNestingInConditional(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("color", "green"),
		"@media", decl(
			"a", decl("&:hover", decl("color", "red")),
		),
	), true)

	checkRules(t, s, "a", "@media")
	checkCSS(t, s, ".a-0-0 {\n  color: green;\n}\n@media {\n  .a-0-0:hover {\n    color: red;\n  }\n}")

	media := s.GetRule("@media")
	if media.Kind != sheet.KindConditional {
		t.Fatalf("@media kind = %v", media.Kind)
	}
	if media.Block.GetRule(".a:hover") == nil {
		t.Errorf("nested rule is not placed into conditional block")
	}
	for _, r := range s.Rules() {
		if r.Key == ".a:hover" {
			t.Errorf("nested rule leaked into sheet")
		}
	}
}

func TestDoubleNesting(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl(
			"& > li", decl(
				"&global(.active)", decl("color", "green"),
			),
		),
		"b", decl(
			"& > li", decl(
				"& > div, & > span,&>div,    &> span", decl("color", "red"),
			),
		),
	), true)

	checkRules(t, s, "a", "b")
	checkClassNames(t, s, "a", "b")
	checkCSS(t, s, ".a-0-0 > li.active {\n  color: green;\n}\n"+
		".b-0-1 > li > div, .b-0-1 > li > span,.b-0-1 > li>div,    .b-0-1 > li> span {\n  color: red;\n}")
}

func TestUnresolvedReference(t *testing.T) {
	g := newRegistry(t)
	_, err := g.CreateStyleSheet(decl(
		"a", decl("color", "red"),
		".a .missing", decl("color", "blue"),
	), sheet.SheetOptions{Named: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, refs.ErrUnresolvedReference) {
		t.Errorf("errors.Is(ErrUnresolvedReference) = false for %v", err)
	}
	var uerr *refs.UnresolvedReferenceError
	if !errors.As(err, &uerr) {
		t.Fatalf("errors.As() = false for %v", err)
	}
	if uerr.Name != "missing" {
		t.Errorf("Name = %q, want missing", uerr.Name)
	}
	if uerr.Rule != ".a .missing" {
		t.Errorf("Rule = %q, want .a .missing", uerr.Rule)
	}
}

func TestUnresolvedInNestedRule(t *testing.T) {
	g := newRegistry(t)
	_, err := g.CreateStyleSheet(decl(
		"a", decl("&:hover > .nope", decl("color", "red")),
	), sheet.SheetOptions{Named: true})
	if !errors.Is(err, refs.ErrUnresolvedReference) {
		t.Errorf("error = %v, want unresolved reference", err)
	}
}

func TestUnbalancedEscapeIsLocal(t *testing.T) {
	g := newRegistry(t)
	_, err := g.CreateStyleSheet(decl(
		"global(.x", decl("color", "red"),
	), sheet.SheetOptions{Named: true})
	var uerr *refs.UnresolvedReferenceError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want unresolved reference", err)
	}
	if uerr.Name != "x" {
		t.Errorf("Name = %q, want x", uerr.Name)
	}
}

func TestUnnamedRulesAreNotResolved(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		".x .y", decl("color", "red", "& .z", decl("color", "blue")),
	), false)

	checkCSS(t, s, ".x .y {\n  color: red;\n}\n.x .y .z {\n  color: blue;\n}")
}

func TestScalarNestedValue(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("color", "red", "&:hover", "blue"),
	), false)
	checkCSS(t, s, "a {\n  color: red;\n}")

	g = newRegistry(t, refs.WithStrict(true))
	if _, err := g.CreateStyleSheet(decl(
		"a", decl("color", "red", "&:hover", "blue"),
	), sheet.SheetOptions{}); err == nil {
		t.Error("expected error in strict mode")
	}
}

func TestStrictFailureRemovesMarkers(t *testing.T) {
	g := sheet.NewRegistry(zaptest.NewLogger(t))
	s := createSheet(t, g, decl(
		"a", decl(
			"color", "red",
			"&:hover", "blue",
			"&:focus", decl("color", "green"),
			"margin", "0",
			"&:active", "black",
		),
	), false)
	r := s.GetRule("a")

	// no plugins on the registry, markers are still there
	p := refs.New(zaptest.NewLogger(t), refs.WithStrict(true))
	err := p.Process(r)
	if err == nil || !strings.Contains(err.Error(), `"&:hover"`) {
		t.Fatalf("Process() error = %v, want error about &:hover", err)
	}
	if got := r.Style.Props(); !slices.Equal(got, []string{"color", "margin"}) {
		t.Errorf("remaining props = %q", got)
	}
	if s.GetRule("a:focus") != nil {
		t.Error("nested rule added although flattening failed")
	}
}

func TestNonRegularRulesIgnored(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"@font-face", decl("font-family", "x", "src", "url(x.woff)"),
	), true)

	r := s.GetRule("@font-face")
	if r == nil || r.Kind != sheet.KindOther {
		t.Fatalf("GetRule(@font-face) = %v", r)
	}
	checkClassNames(t, s)
	checkCSS(t, s, "@font-face {\n  font-family: x;\n  src: url(x.woff);\n}")
}

func TestStandaloneRule(t *testing.T) {
	g := newRegistry(t)
	r, err := g.CreateRule("div", decl("color", "red", "& > p", decl("margin", "0")), sheet.Options{})
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}
	if r.Selector != "div" {
		t.Errorf("Selector = %q", r.Selector)
	}
	if g.GetRule("div > p") == nil {
		t.Error("nested rule is not placed into registry")
	}

	if _, err := g.CreateRule("x", decl("&:hover", decl("color", "red")), sheet.Options{Named: true}); !errors.Is(err, refs.ErrUnresolvedReference) {
		t.Errorf("named standalone nesting error = %v, want unresolved reference", err)
	}
}

func TestPromotionKeepsDeclarationOrder(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl(
			"&:first-child", decl("top", "0"),
			"color", "red",
			"&:last-child", decl("bottom", "0"),
			"margin", "0",
		),
	), false)

	if got := s.GetRule("a").Style.Props(); !slices.Equal(got, []string{"color", "margin"}) {
		t.Errorf("remaining props = %q", got)
	}
	checkCSS(t, s, "a {\n  color: red;\n  margin: 0;\n}\na:first-child {\n  top: 0;\n}\na:last-child {\n  bottom: 0;\n}")
}

func TestIdempotentWithoutMarkers(t *testing.T) {
	g := newRegistry(t)
	s := createSheet(t, g, decl(
		"a", decl("color", "red"),
		"b", decl("color", "blue"),
	), true)

	r := s.GetRule("a")
	before := r.Selector
	if err := refs.New(nil).Process(r); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if r.Selector != before || r.Style.Len() != 1 || len(s.Rules()) != 2 {
		t.Errorf("second pass changed rule: %q, %d props, %d rules", r.Selector, r.Style.Len(), len(s.Rules()))
	}
}
