package sheet

import (
	"fmt"
	"strings"

	"stylec/css"
)

// Kind distinguishes how a rule is treated by plugins and serialization.
type Kind int

const (
	KindRegular     Kind = iota // selector or named rule with declarations
	KindConditional             // at-rule block holding other rules (@media, @supports...)
	KindOther                   // any other at-rule, emitted as is
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindConditional:
		return "conditional"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Options are shared by a rule and all rules created on its behalf.
type Options struct {
	Named    bool      // keys are names mapped to generated classes, not raw selectors
	Sheet    *Sheet    // owning sheet, nil for standalone rules
	Parent   Container // container rule is stored in
	Registry *Registry
}

// Rule is a single declaration unit of a sheet.
type Rule struct {
	Kind     Kind
	Key      string // what the rule was declared under
	Name     string // declared name, empty for selector rules
	Selector string // effective selector, may be rewritten by plugins
	Style    *Style
	Options  Options
	Block    *Conditional // for KindConditional only
}

// Container returns the container rule is stored in.
func (r *Rule) Container() Container {
	return r.Options.Parent
}

// CSS returns the rule as it is going to be emitted. Nested declarations
// left on the rule are skipped.
func (r *Rule) CSS() css.Rule {
	out := css.Rule{Selector: r.Selector}
	for _, prop := range r.Style.Props() {
		v, _ := r.Style.Get(prop)
		if v.IsNested() {
			continue
		}
		out.Declarations = append(out.Declarations, css.Declaration{Property: prop, Value: v.Raw})
	}
	return out
}

// String renders the rule alone.
func (r *Rule) String() string {
	var out css.Stylesheet
	switch r.Kind {
	case KindConditional:
		out.AddBlock(r.Block.Query(), r.Block.cssRules())
	default:
		out.AddRule(r.CSS())
	}
	return out.String()
}

func isConditionalKey(key string) bool {
	return css.IsConditionalAtRule(key)
}

// newRule creates rule according to its key without registering it anywhere.
func newRule(key string, v Value, opts Options) (*Rule, error) {
	switch {
	case isConditionalKey(key):
		if !v.IsNested() {
			return nil, fmt.Errorf("conditional rule %q must hold a block of rules", key)
		}
		if _, ok := opts.Parent.(*Conditional); ok {
			return nil, fmt.Errorf("nested conditional rule %q is not supported", key)
		}
		r := &Rule{Kind: KindConditional, Key: key, Selector: key, Style: NewStyle(), Options: opts}
		block, err := newConditional(r, v.Nested)
		if err != nil {
			return nil, err
		}
		r.Block = block
		return r, nil

	case strings.HasPrefix(key, "@"):
		if v.IsNested() {
			return &Rule{Kind: KindOther, Key: key, Selector: key, Style: v.Nested, Options: opts}, nil
		}
		return nil, fmt.Errorf("at-rule %q must hold a block of declarations", key)
	}

	style := v.Nested
	if style == nil {
		return nil, fmt.Errorf("rule %q must hold a block of declarations", key)
	}
	r := &Rule{Kind: KindRegular, Key: key, Selector: key, Style: style, Options: opts}
	if opts.Named {
		class, err := classFor(key, opts)
		if err != nil {
			return nil, fmt.Errorf("unable to generate class name for %q: %w", key, err)
		}
		r.Name = key
		r.Selector = "." + class
	}
	return r, nil
}

// classFor returns class token for a declared name, registering it in the
// owning sheet when there is one.
func classFor(name string, opts Options) (string, error) {
	if opts.Sheet != nil {
		return opts.Sheet.classFor(name)
	}
	if opts.Registry == nil {
		return name, nil
	}
	return opts.Registry.standaloneClass(name)
}
