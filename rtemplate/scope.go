package rtemplate

import "github.com/rbatis-go/rbatis/rvalue"

// Scope is the lexical binding chain used while rendering one template call.
// Foreach pushes a child Scope with item/index bindings visible only to its
// children; Bind writes to the innermost frame; lookups walk outward and
// finally fall back to Field access on the template's root argument.
type Scope struct {
	parent *Scope
	root   rvalue.Value
	locals map[string]rvalue.Value
}

// NewRootScope builds the outermost Scope wrapping the template's root argument.
func NewRootScope(root rvalue.Value) *Scope {
	return &Scope{root: root}
}

// Child pushes a new, initially empty binding frame.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s}
}

// Bind assigns name to v in the innermost frame.
func (s *Scope) Bind(name string, v rvalue.Value) {
	if s.locals == nil {
		s.locals = make(map[string]rvalue.Value)
	}
	s.locals[name] = v
}

// Lookup implements rvalue.Context: innermost-frame-first, falling back to
// the root argument's Field access once the chain is exhausted.
func (s *Scope) Lookup(name string) rvalue.Value {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.locals != nil {
			if v, ok := cur.locals[name]; ok {
				return v
			}
		}
		if cur.parent == nil {
			return cur.root.Field(name)
		}
	}
	return rvalue.Null
}

var _ rvalue.Context = (*Scope)(nil)
