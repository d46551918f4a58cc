package sheet

import (
	"fmt"
	"io"

	"github.com/elliotchance/orderedmap/v3"
	"go.uber.org/zap"

	"stylec/css"
)

// SheetOptions control sheet creation.
type SheetOptions struct {
	Named bool   // treat keys as names mapped to generated classes
	ID    string // used for class generation, assigned by registry when empty
}

// Sheet is an ordered collection of rules and the mapping of declared names
// to generated classes.
type Sheet struct {
	id       string
	named    bool
	registry *Registry
	log      *zap.Logger

	rules   ruleIndex
	classes *orderedmap.OrderedMap[string, string]
	used    map[string]string // class -> declared name
	ordinal int
}

// ID returns sheet identifier used in class generation.
func (s *Sheet) ID() string {
	return s.id
}

// Named reports whether keys of this sheet are names.
func (s *Sheet) Named() bool {
	return s.named
}

func (s *Sheet) options() Options {
	return Options{Named: s.named, Sheet: s, Parent: s, Registry: s.registry}
}

func (s *Sheet) register(key string, v Value, opts Options) (*Rule, error) {
	opts.Sheet, opts.Parent, opts.Registry = s, s, s.registry
	r, err := newRule(key, v, opts)
	if err != nil {
		return nil, err
	}
	s.rules.add(r)
	s.log.Debug("Rule registered", zap.String("key", key), zap.Stringer("kind", r.Kind), zap.String("selector", r.Selector))
	return r, nil
}

// AddRules registers all declarations first, so rules may reference rules
// declared after them, then processes registered rules in declaration order.
func (s *Sheet) AddRules(decls *Style) error {
	created := make([]*Rule, 0, decls.Len())
	for _, key := range decls.Props() {
		v, _ := decls.Get(key)
		r, err := s.register(key, v, s.options())
		if err != nil {
			return fmt.Errorf("unable to register rule %q: %w", key, err)
		}
		created = append(created, r)
	}
	for _, r := range created {
		if err := s.registry.Process(r); err != nil {
			return fmt.Errorf("unable to process rule %q: %w", r.Key, err)
		}
	}
	return nil
}

// AddRule registers and immediately processes a single rule. The rule is
// appended to the end of the sheet.
func (s *Sheet) AddRule(key string, style *Style, opts Options) (*Rule, error) {
	r, err := s.register(key, Nested(style), opts)
	if err != nil {
		return nil, fmt.Errorf("unable to register rule %q: %w", key, err)
	}
	if err := s.registry.Process(r); err != nil {
		return nil, fmt.Errorf("unable to process rule %q: %w", key, err)
	}
	return r, nil
}

// GetRule looks rule up by its declared key (name) or current selector.
func (s *Sheet) GetRule(key string) *Rule {
	return s.rules.get(key)
}

// Rules returns top-level rules in insertion order.
func (s *Sheet) Rules() []*Rule {
	return s.rules.rules()
}

func (s *Sheet) index() *ruleIndex {
	return &s.rules
}

// Class returns class generated for a declared name.
func (s *Sheet) Class(name string) (string, bool) {
	return s.classes.Get(name)
}

// ClassNames returns declared names which are still simple classes, in
// registration order.
func (s *Sheet) ClassNames() []string {
	names := make([]string, 0, s.classes.Len())
	for el := s.classes.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// Classes returns a copy of the name to class mapping.
func (s *Sheet) Classes() map[string]string {
	out := make(map[string]string, s.classes.Len())
	for el := s.classes.Front(); el != nil; el = el.Next() {
		out[el.Key] = el.Value
	}
	return out
}

// RegisterLocal records class generated for a declared name.
func (s *Sheet) RegisterLocal(name, class string) {
	s.classes.Set(name, class)
}

// classFor returns already registered class for a name or generates and
// registers a new one. Every class belongs to a single declared name.
func (s *Sheet) classFor(name string) (string, error) {
	if class, ok := s.classes.Get(name); ok {
		return class, nil
	}
	class, err := s.registry.className(ClassData{Name: name, Sheet: s.id, Index: s.ordinal})
	if err != nil {
		return "", err
	}
	if other, ok := s.used[class]; ok && other != name {
		return "", fmt.Errorf("class %q generated for %q is already used by %q", class, name, other)
	}
	s.used[class] = name
	s.ordinal++
	s.RegisterLocal(name, class)
	return class, nil
}

// PromoteToCompound replaces rule selector with a compound one. The rule
// stops being a simple class: its name is removed from the class mapping.
func (s *Sheet) PromoteToCompound(r *Rule, selector string) {
	old := r.Selector
	r.Selector = selector
	if c := r.Container(); c != nil {
		c.index().reselect(r, old)
	}
	if len(r.Name) > 0 {
		s.classes.Delete(r.Name)
	}
	s.log.Debug("Rule promoted to compound selector", zap.String("name", r.Name), zap.String("selector", selector))
}

// Stylesheet converts sheet into CSS model. Rules without declarations are
// omitted.
func (s *Sheet) Stylesheet() *css.Stylesheet {
	out := &css.Stylesheet{}
	for _, r := range s.rules.list {
		switch r.Kind {
		case KindConditional:
			out.AddBlock(r.Block.Query(), r.Block.cssRules())
		default:
			out.AddRule(r.CSS())
		}
	}
	return out
}

// WriteTo writes CSS text of the sheet, implementing io.WriterTo.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	return s.Stylesheet().WriteTo(w)
}

// String returns CSS text of the sheet.
func (s *Sheet) String() string {
	return s.Stylesheet().String()
}
