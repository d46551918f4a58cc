// Package sheet holds style sheets as ordered collections of rules declared
// under names or raw selectors, and runs plugins on every rule as it is
// added.
package sheet

import (
	"fmt"
	"strconv"

	"github.com/elliotchance/orderedmap/v3"
	"go.uber.org/zap"
)

// Plugin is invoked once for every rule added to a container. Plugins may
// add more rules synchronously. An error aborts processing of the rule and
// is propagated to the caller which added it.
type Plugin func(r *Rule) error

// Registry is the top-level owner of plugins and class naming. It creates
// sheets and serves as container for standalone rules.
type Registry struct {
	log     *zap.Logger
	plugins []Plugin
	namer   ClassNamer
	sheets  int
	rules   ruleIndex
	ordinal int // standalone classes generated so far
}

// Option configures Registry.
type Option func(*Registry)

// WithClassNamer replaces default class naming.
func WithClassNamer(n ClassNamer) Option {
	return func(g *Registry) {
		g.namer = n
	}
}

// NewRegistry creates registry with no plugins.
func NewRegistry(log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Registry{
		log:   log.Named("sheet"),
		rules: newRuleIndex(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.namer == nil {
		g.namer = DefaultClassNamer()
	}
	return g
}

// Use appends plugins to the processing chain.
func (g *Registry) Use(plugins ...Plugin) *Registry {
	g.plugins = append(g.plugins, plugins...)
	return g
}

// CreateStyleSheet creates sheet and adds decls to it.
func (g *Registry) CreateStyleSheet(decls *Style, opts SheetOptions) (*Sheet, error) {
	s := g.NewStyleSheet(opts)
	if decls == nil {
		return s, nil
	}
	if err := s.AddRules(decls); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStyleSheet creates empty sheet.
func (g *Registry) NewStyleSheet(opts SheetOptions) *Sheet {
	id := opts.ID
	if len(id) == 0 {
		id = strconv.Itoa(g.sheets)
	}
	g.sheets++
	return &Sheet{
		id:       id,
		named:    opts.Named,
		registry: g,
		log:      g.log.With(zap.String("sheet", id)),
		rules:    newRuleIndex(),
		classes:  orderedmap.NewOrderedMap[string, string](),
		used:     make(map[string]string),
	}
}

// Process runs all plugins on r. Rules of a conditional block are processed
// after the block itself, in declaration order.
func (g *Registry) Process(r *Rule) error {
	for _, p := range g.plugins {
		if err := p(r); err != nil {
			return err
		}
	}
	if r.Kind != KindConditional {
		return nil
	}
	for _, inner := range r.Block.Rules() {
		if err := g.Process(inner); err != nil {
			return fmt.Errorf("unable to process rule %q: %w", inner.Key, err)
		}
	}
	return nil
}

// CreateRule creates standalone rule which does not belong to any sheet.
func (g *Registry) CreateRule(key string, style *Style, opts Options) (*Rule, error) {
	return g.AddRule(key, style, opts)
}

// AddRule implements Container for standalone rules.
func (g *Registry) AddRule(key string, style *Style, opts Options) (*Rule, error) {
	opts.Sheet, opts.Parent, opts.Registry = nil, g, g
	r, err := newRule(key, Nested(style), opts)
	if err != nil {
		return nil, fmt.Errorf("unable to create rule %q: %w", key, err)
	}
	g.rules.add(r)
	if err := g.Process(r); err != nil {
		return nil, fmt.Errorf("unable to process rule %q: %w", key, err)
	}
	return r, nil
}

// GetRule looks up standalone rule.
func (g *Registry) GetRule(key string) *Rule {
	return g.rules.get(key)
}

// Rules returns standalone rules in creation order.
func (g *Registry) Rules() []*Rule {
	return g.rules.rules()
}

func (g *Registry) index() *ruleIndex {
	return &g.rules
}

// standaloneClass generates class for a named rule which has no sheet.
func (g *Registry) standaloneClass(name string) (string, error) {
	class, err := g.className(ClassData{Name: name, Index: g.ordinal})
	if err != nil {
		return "", err
	}
	g.ordinal++
	return class, nil
}

func (g *Registry) className(data ClassData) (string, error) {
	class, err := g.namer(data)
	if err != nil {
		return "", err
	}
	if len(class) == 0 {
		return "", fmt.Errorf("empty class name generated for %q", data.Name)
	}
	return class, nil
}
