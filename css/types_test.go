package css_test

import (
	"bytes"
	"testing"

	"stylec/css"
)

func decl(prop, val string) css.Declaration {
	return css.Declaration{Property: prop, Value: val}
}

func TestStylesheet_String(t *testing.T) {
	var sheet css.Stylesheet
	sheet.AddRule(css.Rule{Selector: ".a", Declarations: []css.Declaration{decl("padding", "0")}})
	sheet.AddRule(css.Rule{Selector: ".b", Declarations: []css.Declaration{decl("color", "black"), decl("float", "left")}})

	want := ".a {\n  padding: 0;\n}\n.b {\n  color: black;\n  float: left;\n}"
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestStylesheet_Block(t *testing.T) {
	var sheet css.Stylesheet
	sheet.AddRule(css.Rule{Selector: ".a", Declarations: []css.Declaration{decl("color", "green")}})
	sheet.AddBlock("@media", []css.Rule{
		{Selector: ".a"},
		{Selector: ".a:hover", Declarations: []css.Declaration{decl("color", "red")}},
	})

	want := ".a {\n  color: green;\n}\n@media {\n  .a:hover {\n    color: red;\n  }\n}"
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestStylesheet_EmptyItemsDropped(t *testing.T) {
	var sheet css.Stylesheet
	sheet.AddRule(css.Rule{Selector: ".empty"})
	sheet.AddBlock("@media print", []css.Rule{{Selector: ".also-empty"}})

	if len(sheet.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(sheet.Items))
	}
	if sheet.String() != "" {
		t.Errorf("expected empty output, got %q", sheet.String())
	}
}

func TestStylesheet_WriteToCount(t *testing.T) {
	var sheet css.Stylesheet
	sheet.AddRule(css.Rule{Selector: "ab, ac", Declarations: []css.Declaration{decl("float", "left")}})

	var buf bytes.Buffer
	n, err := sheet.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if int(n) != buf.Len() {
		t.Errorf("WriteTo() reported %d bytes, wrote %d", n, buf.Len())
	}
	if sheet.RulesBySelector("ab, ac") == nil {
		t.Error("expected rule to be found by selector")
	}
}

func TestRule_GetPropertyLastWins(t *testing.T) {
	r := css.Rule{Selector: ".a", Declarations: []css.Declaration{decl("color", "red"), decl("color", "blue")}}
	if v, _ := r.GetProperty("color"); v != "blue" {
		t.Errorf("expected last declaration to win, got %q", v)
	}
	if _, ok := r.GetProperty("margin"); ok {
		t.Error("expected margin to be absent")
	}
}
