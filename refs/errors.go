package refs

import (
	"errors"
	"fmt"
)

// ErrUnresolvedReference is matched by every UnresolvedReferenceError.
var ErrUnresolvedReference = errors.New("unresolved local reference")

// UnresolvedReferenceError reports a class atom in a declared name which
// does not match any rule of the sheet.
type UnresolvedReferenceError struct {
	Name string // missing class name, without the dot
	Rule string // declared name being resolved
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("no local rule found with the name %s (referenced from %q), make sure to define it or use global(.%s) instead",
		e.Name, e.Rule, e.Name)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}
