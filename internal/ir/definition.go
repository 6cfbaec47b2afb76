package ir

import (
	"fmt"

	"github.com/Alia5/progen/internal/schema"
)

// Kind selects the capability set a definition implements.
type Kind int

const (
	Message Kind = iota
	RemoteCall
	PlainData
)

func (k Kind) String() string {
	switch k {
	case Message:
		return string(schema.TagMessage)
	case RemoteCall:
		return string(schema.TagRemoteCall)
	case PlainData:
		return string(schema.TagPlainData)
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// HasTypeID reports whether definitions of this kind carry a type id.
func (k Kind) HasTypeID() bool {
	return k == Message || k == RemoteCall
}

// TypeID is a numeric protocol type identifier.
type TypeID uint32

// FieldSpec is one declared field. Its index in Definition.Fields is both
// the wire position and the presence-bit position.
type FieldSpec struct {
	Name    string
	Type    TypeRef
	Default string
	Pos     schema.Pos
}

// IsBraceDefault reports whether the default is the value-initialization
// literal "{}".
func (f FieldSpec) IsBraceDefault() bool {
	return f.Default == "{}"
}

// CodeField enables sparse transmission through a presence bitmask.
type CodeField struct {
	Name        string // member name, "code" unless overridden
	Type        string // unsigned integer type name, e.g. uint32_t
	Bits        int
	DefaultMask uint64
	DefaultAll  bool // default-code was ALL
}

// Definition is the unit of generation.
type Definition struct {
	Name     string
	Kind     Kind
	TypeID   TypeID
	MaxSize  uint64
	Code     *CodeField
	Fields   []FieldSpec
	Includes []string
	Argument string
	Result   string
	Pos      schema.Pos
}

// HasTypeID reports whether the definition carries a type id.
func (d *Definition) HasTypeID() bool {
	return d.Kind.HasTypeID()
}

// FieldBit returns the presence bit of the i-th field.
func (d *Definition) FieldBit(i int) uint64 {
	return uint64(1) << uint(i)
}

// AllFieldsMask returns (1 << len(Fields)) - 1.
func (d *Definition) AllFieldsMask() uint64 {
	n := len(d.Fields)
	if n >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(n) - 1
}

// HasComposite reports whether any field is a non-scalar.
func (d *Definition) HasComposite() bool {
	for _, f := range d.Fields {
		if f.Type.Composite() {
			return true
		}
	}
	return false
}

// MessageRefs returns every message name referenced by the fields, in
// first-seen order.
func (d *Definition) MessageRefs() []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range d.Fields {
		for _, r := range f.Type.MessageRefs() {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// StateGroup binds a subset of identified definitions into one runtime
// dispatch table.
type StateGroup struct {
	Name      string
	Protocols []string
	Pos       schema.Pos
}
