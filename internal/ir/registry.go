package ir

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Alia5/progen/internal/schema"
)

// Registry is the IR of one generation run: definitions in first-seen
// order, the set of used type ids, and the state groups. It is owned by a
// single run and is not safe for concurrent mutation.
type Registry struct {
	defs   []*Definition
	byName map[string]*Definition
	byID   map[TypeID]string

	states      []*StateGroup
	stateByName map[string]*StateGroup
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:      make(map[string]*Definition),
		byID:        make(map[TypeID]string),
		stateByName: make(map[string]*StateGroup),
	}
}

// Register adds def. It fails when the name is taken, when the type id
// collides with an existing entry, or when a remote-call names an
// argument or result type that is not registered yet.
func (r *Registry) Register(def *Definition) error {
	tag := schema.Tag(def.Kind.String())
	if prev, ok := r.byName[def.Name]; ok {
		return schema.NewValidationError(tag, def.Name, def.Pos,
			fmt.Sprintf("name already defined as %s at %s; definition names must be unique", prev.Kind, prev.Pos))
	}
	if def.HasTypeID() {
		if owner, ok := r.byID[def.TypeID]; ok {
			return &DuplicateIDError{Name: def.Name, Kind: def.Kind, Existing: owner, TypeID: def.TypeID, Pos: def.Pos}
		}
	}
	if def.Kind == RemoteCall {
		for _, ref := range []struct{ role, name string }{{"argument", def.Argument}, {"result", def.Result}} {
			target, ok := r.byName[ref.name]
			if !ok {
				return &UnresolvedReferenceError{Owner: def.Name, Tag: tag, Role: ref.role, Ref: ref.name, Pos: def.Pos}
			}
			if target.Kind == RemoteCall {
				return &UnresolvedReferenceError{Owner: def.Name, Tag: tag, Role: ref.role, Ref: ref.name, Pos: def.Pos,
					Rule: "must name a plain-data or message definition"}
			}
		}
	}

	r.defs = append(r.defs, def)
	r.byName[def.Name] = def
	if def.HasTypeID() {
		r.byID[def.TypeID] = def.Name
	}
	return nil
}

// AddState adds a state group. Every listed protocol must name a
// registered definition that carries a type id.
func (r *Registry) AddState(sg *StateGroup) error {
	if _, ok := r.stateByName[sg.Name]; ok {
		return schema.NewValidationError(schema.TagState, sg.Name, sg.Pos, "state group already defined")
	}
	seen := make(map[string]bool, len(sg.Protocols))
	for _, name := range sg.Protocols {
		def, ok := r.byName[name]
		if !ok {
			return &UnresolvedReferenceError{Owner: sg.Name, Tag: schema.TagState, Role: "protocol", Ref: name, Pos: sg.Pos}
		}
		if !def.HasTypeID() {
			return &UnresolvedReferenceError{Owner: sg.Name, Tag: schema.TagState, Role: "protocol", Ref: name, Pos: sg.Pos,
				Rule: "must name a message or remote-call definition"}
		}
		if seen[name] {
			return schema.NewValidationError(schema.TagState, sg.Name, sg.Pos, fmt.Sprintf("protocol %q listed twice", name))
		}
		seen[name] = true
	}
	r.states = append(r.states, sg)
	r.stateByName[sg.Name] = sg
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// LookupID returns the definition that owns id.
func (r *Registry) LookupID(id TypeID) (*Definition, bool) {
	name, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.byName[name], true
}

// Definitions returns every definition in first-seen order.
func (r *Registry) Definitions() []*Definition {
	return slices.Clone(r.defs)
}

// States returns every state group in declaration order.
func (r *Registry) States() []*StateGroup {
	return slices.Clone(r.states)
}

// Identified returns the definitions that carry a type id, ascending by id.
func (r *Registry) Identified() []*Definition {
	var out []*Definition
	for _, d := range r.defs {
		if d.HasTypeID() {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b *Definition) int {
		return cmp.Compare(a.TypeID, b.TypeID)
	})
	return out
}

// MaxTypeID returns the largest type id present, or 0.
func (r *Registry) MaxTypeID() TypeID {
	var m TypeID
	for id := range r.byID {
		m = max(m, id)
	}
	return m
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}
