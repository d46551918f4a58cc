package sheet

import (
	"fmt"

	"stylec/css"
)

// Conditional is a conditional at-rule block (@media, @supports...) holding
// its own rules. Name lookups are done against the parent sheet since local
// references resolve against the sheet's global name table.
type Conditional struct {
	rule     *Rule
	sheet    *Sheet
	registry *Registry
	rules    ruleIndex
}

func newConditional(r *Rule, decls *Style) (*Conditional, error) {
	c := &Conditional{
		rule:     r,
		sheet:    r.Options.Sheet,
		registry: r.Options.Registry,
		rules:    newRuleIndex(),
	}
	inner := Options{Named: r.Options.Named, Sheet: c.sheet, Parent: c, Registry: c.registry}
	for _, key := range decls.Props() {
		v, _ := decls.Get(key)
		if _, err := c.register(key, v, inner); err != nil {
			return nil, fmt.Errorf("conditional %q: %w", r.Key, err)
		}
	}
	return c, nil
}

// Query returns the at-rule prelude, e.g. "@media print".
func (c *Conditional) Query() string {
	return c.rule.Key
}

// Sheet returns sheet the block belongs to.
func (c *Conditional) Sheet() *Sheet {
	return c.sheet
}

// Rule returns the rule representing the block in its sheet.
func (c *Conditional) Rule() *Rule {
	return c.rule
}

func (c *Conditional) register(key string, v Value, opts Options) (*Rule, error) {
	opts.Sheet, opts.Parent, opts.Registry = c.sheet, c, c.registry
	r, err := newRule(key, v, opts)
	if err != nil {
		return nil, err
	}
	c.rules.add(r)
	return r, nil
}

// AddRule creates rule inside the block and processes it.
func (c *Conditional) AddRule(key string, style *Style, opts Options) (*Rule, error) {
	r, err := c.register(key, Nested(style), opts)
	if err != nil {
		return nil, err
	}
	if err := c.registry.Process(r); err != nil {
		return nil, fmt.Errorf("unable to process rule %q: %w", key, err)
	}
	return r, nil
}

// GetRule looks up a rule of this block.
func (c *Conditional) GetRule(key string) *Rule {
	return c.rules.get(key)
}

// Rules returns rules of this block in insertion order.
func (c *Conditional) Rules() []*Rule {
	return c.rules.rules()
}

func (c *Conditional) index() *ruleIndex {
	return &c.rules
}

func (c *Conditional) cssRules() []css.Rule {
	out := make([]css.Rule, 0, len(c.rules.list))
	for _, r := range c.rules.list {
		out = append(out, r.CSS())
	}
	return out
}
