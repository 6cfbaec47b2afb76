package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alia5/progen/internal/schema"
)

// Sentinel errors for registry invariant violations.
var (
	// ErrDuplicateID indicates two definitions share a type id.
	ErrDuplicateID = errors.New("progen: duplicate type id")
	// ErrUnresolvedReference indicates a reference to an unknown definition.
	ErrUnresolvedReference = errors.New("progen: unresolved reference")
)

// DuplicateIDError reports a type-id collision.
type DuplicateIDError struct {
	Name     string
	Kind     Kind
	Existing string
	TypeID   TypeID
	Pos      schema.Pos
}

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "progen: duplicate type-id %d: %s %q", e.TypeID, e.Kind, e.Name)
	if pos := e.Pos.String(); pos != "" {
		fmt.Fprintf(&b, " (%s)", pos)
	}
	fmt.Fprintf(&b, " collides with %q; type ids must be unique", e.Existing)
	return b.String()
}

// Is reports whether the target matches the sentinel error for DuplicateIDError.
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// UnresolvedReferenceError reports a reference to a definition that is
// not registered at the time it is needed.
type UnresolvedReferenceError struct {
	Owner string // referencing definition or state group
	Tag   schema.Tag
	Role  string // "argument", "result" or "protocol"
	Ref   string
	Pos   schema.Pos
	Rule  string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "progen: unresolved reference: %s %q", e.Tag, e.Owner)
	if pos := e.Pos.String(); pos != "" {
		fmt.Fprintf(&b, " (%s)", pos)
	}
	fmt.Fprintf(&b, ": %s %q", e.Role, e.Ref)
	if e.Rule != "" {
		b.WriteString(" ")
		b.WriteString(e.Rule)
	} else {
		b.WriteString(" is not defined before use")
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnresolvedReferenceError.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}
