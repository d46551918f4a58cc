// Package refs converts nested rules into flat sibling rules and resolves
// references to other local classes in rule names.
//
// Property names containing the parent marker "&" are nested rules: the
// marker is replaced with the parent selector and the declarations are
// moved into a new rule in the same container. Names of named rules may
// reference other rules of the sheet with class atoms (".name"); those are
// replaced with the current selectors of the referenced rules. Anything
// wrapped into global(...) is left as is.
package refs

import (
	"fmt"

	"go.uber.org/zap"

	"stylec/selector"
	"stylec/sheet"
)

// Processor is the rule plugin.
type Processor struct {
	log    *zap.Logger
	strict bool
}

// Option configures Processor.
type Option func(*Processor)

// WithStrict makes scalar values declared under nested rule names an error.
// By default such declarations are dropped with a warning.
func WithStrict(strict bool) Option {
	return func(p *Processor) {
		p.strict = strict
	}
}

// New creates processor.
func New(log *zap.Logger, opts ...Option) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{log: log.Named("refs")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plugin returns processor as sheet plugin.
func (p *Processor) Plugin() sheet.Plugin {
	return p.Process
}

// Process flattens nested rules declared on r and then resolves local
// references in its name. Rules created by flattening are fully processed
// before the references of r are resolved.
func (p *Processor) Process(r *sheet.Rule) error {
	if r.Kind != sheet.KindRegular {
		return nil
	}
	if err := p.flatten(r); err != nil {
		return err
	}
	if len(r.Name) == 0 {
		return nil
	}
	return p.resolve(r)
}

// container returns where rules created on behalf of r go: the sheet (or
// the registry for standalone rules), unless r lives inside a conditional
// block in which case the new rules stay in that block.
func container(r *sheet.Rule) sheet.Container {
	if c, ok := r.Options.Parent.(*sheet.Conditional); ok {
		return c
	}
	if r.Options.Sheet != nil {
		return r.Options.Sheet
	}
	return r.Options.Registry
}

// parentSelector is what the parent marker stands for.
func parentSelector(r *sheet.Rule) string {
	if len(r.Name) > 0 {
		return "." + r.Name
	}
	return r.Selector
}

type nested struct {
	selector string
	style    *sheet.Style
}

func (p *Processor) flatten(r *sheet.Rule) error {
	parent := parentSelector(r)

	// collect and remove first, style must not change while being walked.
	// Every marker property leaves the rule even when flattening fails.
	var (
		queue  []nested
		scalar error
	)
	for _, prop := range r.Style.Props() {
		sel := selector.ReplaceParent(prop, parent)
		if sel == prop {
			continue
		}
		v, _ := r.Style.Get(prop)
		r.Style.Delete(prop)
		if v.IsNested() {
			queue = append(queue, nested{selector: sel, style: v.Nested})
			continue
		}
		if p.strict {
			if scalar == nil {
				scalar = fmt.Errorf("nested rule %q of %q holds value %q instead of declarations", prop, r.Key, v.Raw)
			}
			continue
		}
		p.log.Warn("Nested rule without declarations dropped", zap.String("rule", r.Key), zap.String("property", prop), zap.String("value", v.Raw))
	}
	if scalar != nil {
		return scalar
	}
	if len(queue) == 0 {
		return nil
	}

	dst := container(r)
	if dst == nil {
		return fmt.Errorf("rule %q has no container for nested rules", r.Key)
	}
	for _, n := range queue {
		p.log.Debug("Promoting nested rule", zap.String("parent", r.Key), zap.String("selector", n.selector))
		if _, err := dst.AddRule(n.selector, n.style, r.Options); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) resolve(r *sheet.Rule) error {
	s := r.Options.Sheet
	rewritten, err := selector.RewriteLocal(r.Name, func(name string) (string, error) {
		if s == nil {
			return "", &UnresolvedReferenceError{Name: name, Rule: r.Name}
		}
		ref := s.GetRule(name)
		if ref == nil {
			return "", &UnresolvedReferenceError{Name: name, Rule: r.Name}
		}
		return ref.Selector, nil
	})
	if err != nil {
		return err
	}
	if rewritten == r.Name {
		return nil
	}
	p.log.Debug("Local references resolved", zap.String("name", r.Name), zap.String("selector", rewritten))
	if s == nil {
		// nothing to resolve against, only escapes were unwrapped
		r.Selector = rewritten
		return nil
	}
	s.PromoteToCompound(r, rewritten)
	return nil
}
