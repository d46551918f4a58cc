package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is a single "property: value" pair of a rule.
type Declaration struct {
	Property string
	Value    string
}

// Rule represents a single CSS rule (selector + declarations).
type Rule struct {
	Selector     string        // Selector text as emitted
	Declarations []Declaration // In declaration order
	SourceLine   int           // Line number in source for error reporting, 0 when generated
}

// Empty returns true if the rule has nothing to output.
func (r Rule) Empty() bool {
	return len(r.Declarations) == 0
}

// GetProperty returns the last value declared for a property.
func (r Rule) GetProperty(name string) (string, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == name {
			return r.Declarations[i].Value, true
		}
	}
	return "", false
}

// Block represents a conditional at-rule (e.g. @media, @supports) with its
// nested rules.
type Block struct {
	Query string // Full prelude including the at-keyword, e.g. "@media print"
	Rules []Rule
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule or Block is non-nil.
type StylesheetItem struct {
	Rule  *Rule
	Block *Block
}

// Stylesheet represents an ordered CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for unsupported features
}

// AddRule appends a rule. Empty rules are dropped.
func (s *Stylesheet) AddRule(rule Rule) {
	if rule.Empty() {
		return
	}
	s.Items = append(s.Items, StylesheetItem{Rule: &rule})
}

// AddBlock appends a conditional block. Empty rules inside are dropped and
// a block with no rules left is not added at all.
func (s *Stylesheet) AddBlock(query string, rules []Rule) {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Empty() {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return
	}
	s.Items = append(s.Items, StylesheetItem{Block: &Block{Query: query, Rules: kept}})
}

// Len returns number of rules including rules inside blocks.
func (s *Stylesheet) Len() int {
	var n int
	for _, item := range s.Items {
		switch {
		case item.Rule != nil:
			n++
		case item.Block != nil:
			n += len(item.Block.Rules)
		}
	}
	return n
}

// Selectors returns selectors of all rules (including rules inside blocks) in
// source order.
func (s *Stylesheet) Selectors() []string {
	var sels []string
	for _, item := range s.Items {
		switch {
		case item.Rule != nil:
			sels = append(sels, item.Rule.Selector)
		case item.Block != nil:
			for _, r := range item.Block.Rules {
				sels = append(sels, r.Selector)
			}
		}
	}
	return sels
}

// RulesBySelector returns all top-level rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector == selector {
			matches = append(matches, *item.Rule)
		}
	}
	return matches
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Items are separated by a single new line, no new line follows the last one.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var n int
		var err error

		if i > 0 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}

		switch {
		case item.Block != nil:
			n, err = writeBlock(w, item.Block)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, "")
		}

		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single CSS rule to w, every line prefixed with indent.
func writeRule(w io.Writer, rule *Rule, indent string) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, rule.Selector)
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err = fmt.Fprintf(w, "%s  %s: %s;\n", indent, d.Property, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprintf(w, "%s}", indent)
	total += n
	return total, err
}

// writeBlock writes a conditional block to w.
func writeBlock(w io.Writer, b *Block) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", b.Query)
	total += n
	if err != nil {
		return total, err
	}

	for i := range b.Rules {
		// Indent each rule line within the block
		n, err = writeRule(w, &b.Rules[i], "  ")
		total += n
		if err != nil {
			return total, err
		}
		n, err = fmt.Fprint(w, "\n")
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err = fmt.Fprint(w, "}")
	total += n
	return total, err
}
