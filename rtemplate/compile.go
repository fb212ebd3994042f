package rtemplate

import (
	"fmt"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rvalue"
)

// CompiledTemplate is the opaque, shared, referentially-immutable callable
// produced by compiling one mapper operation or py-sql function. It is safe
// to call concurrently from many tasks.
type CompiledTemplate struct {
	ID       string
	children []node
}

// Render runs the template against root, producing raw `?`-placeholder SQL
// and its ordered argument list - the pure C2 output, before any
// driver-specific placeholder rewrite.
func (t *CompiledTemplate) Render(root rvalue.Value) (string, []rvalue.Value) {
	rs := renderState{scope: NewRootScope(root)}
	emitAll(t.children, &rs)
	return rs.sql.String(), rs.args
}

// RenderFor runs Render and then applies the placeholder rewrite (C3) for
// the given dialect, matching the combined (sql, args) contract the data
// model describes for CompiledTemplate.
func (t *CompiledTemplate) RenderFor(root rvalue.Value, dialect rdialect.Dialect) (string, []rvalue.Value, error) {
	sql, args := t.Render(root)
	rewritten, err := rdialect.Rewrite(sql, dialect)
	if err != nil {
		return "", nil, err
	}
	return rewritten, args, nil
}

// Registry holds every compiled template of a loaded template set (one or
// more mapper files), keyed by template-id, so <include>/Include tags can
// resolve siblings regardless of load order.
type Registry struct {
	templates map[string]*CompiledTemplate
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*CompiledTemplate)}
}

// Get returns the compiled template for id, or nil if it has not been loaded.
func (r *Registry) Get(id string) *CompiledTemplate {
	return r.templates[id]
}

func (r *Registry) fragment(id string) ([]node, bool) {
	t, ok := r.templates[id]
	if !ok {
		return nil, false
	}
	return t.children, true
}

// LoadXML parses an XML mapper document's text and compiles every top-level
// operation tag (<select>/<insert>/<update>/<delete>/<sql>) it contains,
// registering each under its `id` attribute.
func (r *Registry) LoadXML(source string) error {
	ops, err := parseXMLMapper(source, r)
	if err != nil {
		return fmt.Errorf("rtemplate: %w", err)
	}

	for id, children := range ops {
		r.templates[id] = &CompiledTemplate{ID: id, children: children}
	}

	return nil
}

// LoadPySQL parses one py-sql source file, which defines exactly one
// function-like template, and registers it under id.
func (r *Registry) LoadPySQL(id, source string) error {
	children, err := parsePySQL(source, r)
	if err != nil {
		return fmt.Errorf("rtemplate: %w", err)
	}

	r.templates[id] = &CompiledTemplate{ID: id, children: children}
	return nil
}
