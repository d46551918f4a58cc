package sheet

// Container stores rules. Sheets, conditional blocks and the registry (for
// standalone rules) are containers.
type Container interface {
	// AddRule creates rule, stores it and runs it through the plugins.
	AddRule(key string, style *Style, opts Options) (*Rule, error)
	// GetRule looks rule up by the key it was declared under or by its
	// current selector.
	GetRule(key string) *Rule
	// Rules returns stored rules in insertion order.
	Rules() []*Rule

	index() *ruleIndex
}

// ruleIndex is an ordered rule list with key and selector lookups.
type ruleIndex struct {
	list       []*Rule
	byKey      map[string]*Rule
	bySelector map[string]*Rule
}

func newRuleIndex() ruleIndex {
	return ruleIndex{
		byKey:      make(map[string]*Rule),
		bySelector: make(map[string]*Rule),
	}
}

func (x *ruleIndex) add(r *Rule) {
	x.list = append(x.list, r)
	x.byKey[r.Key] = r
	x.bySelector[r.Selector] = r
}

func (x *ruleIndex) get(key string) *Rule {
	if r, ok := x.byKey[key]; ok {
		return r
	}
	return x.bySelector[key]
}

// reselect moves r to its new selector in the selector index.
func (x *ruleIndex) reselect(r *Rule, old string) {
	if x.bySelector[old] == r {
		delete(x.bySelector, old)
	}
	x.bySelector[r.Selector] = r
}

func (x *ruleIndex) rules() []*Rule {
	out := make([]*Rule, len(x.list))
	copy(out, x.list)
	return out
}
