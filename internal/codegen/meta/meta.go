// Package meta describes what each artifact must contain, independently of
// the language it is printed in. Backends render Metadata; tests can compare
// structured intent instead of text.
package meta

import (
	"strings"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/ir"
)

// Capability is one feature a generated type implements.
type Capability uint32

const (
	CapTypeID Capability = 1 << iota
	CapName
	CapMaxSize
	CapClone
	CapDump
	CapRunHook
	CapServerHook
	CapClientHook
	CapTimeoutHook
	CapCallHelper
	CapTypeAliases
	CapSparse
	CapMoveConstructor
)

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapTypeID, "type-id"},
	{CapName, "name"},
	{CapMaxSize, "max-size"},
	{CapClone, "clone"},
	{CapDump, "dump"},
	{CapRunHook, "run-hook"},
	{CapServerHook, "server-hook"},
	{CapClientHook, "client-hook"},
	{CapTimeoutHook, "timeout-hook"},
	{CapCallHelper, "call-helper"},
	{CapTypeAliases, "type-aliases"},
	{CapSparse, "sparse"},
	{CapMoveConstructor, "move-constructor"},
}

// Has reports whether every bit of f is set.
func (c Capability) Has(f Capability) bool {
	return c&f == f
}

func (c Capability) String() string {
	var parts []string
	for _, n := range capabilityNames {
		if c.Has(n.c) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// KindCapabilities returns the fixed capability set of a kind.
func KindCapabilities(k ir.Kind) Capability {
	switch k {
	case ir.Message:
		return CapTypeID | CapName | CapMaxSize | CapClone | CapDump | CapRunHook
	case ir.RemoteCall:
		return CapTypeID | CapName | CapMaxSize | CapClone | CapServerHook | CapClientHook |
			CapTimeoutHook | CapCallHelper | CapTypeAliases
	default:
		return CapClone | CapDump
	}
}

// Field is a field as the emitters see it.
type Field struct {
	Name      string
	Index     int
	Type      ir.TypeRef
	Default   string
	Composite bool
	Bit       uint64 // presence bit, 1 << Index
	BitName   string // FIELDS_<NAME>
}

// CodeField describes the presence mask of a sparse artifact.
type CodeField struct {
	Name        string
	Type        string
	Bits        int
	DefaultMask uint64
	DefaultAll  bool
	AllFields   uint64
}

// Artifact is the description of one definition's interface and
// implementation artifacts.
type Artifact struct {
	Name     string
	Kind     ir.Kind
	Caps     Capability
	TypeID   ir.TypeID
	MaxSize  uint64
	Code     *CodeField
	Fields   []Field
	Includes []string // extra includes from the schema, in declaration order
	Refs     []string // referenced definition names, first-seen order
	Argument string
	Result   string
	Source   string
}

// Member is one identified definition bound to a table.
type Member struct {
	Name   string
	Kind   ir.Kind
	TypeID ir.TypeID
}

// State describes one registration artifact.
type State struct {
	Name    string
	Members []Member
	Source  string
}

// Definitions describes the aggregate id enumeration.
type Definitions struct {
	Entries []Member // ascending by type id
	Max     ir.TypeID
}

// Metadata holds everything the backends render, derived from one registry.
// Shared between generator orchestrator and language-specific generators.
type Metadata struct {
	Artifacts   []Artifact
	States      []State
	Definitions Definitions
	Registry    *ir.Registry

	// Namespace holds the C++ runtime base classes.
	Namespace string
	// Package is the Go package name of generated code.
	Package string
	// Runtime is the Go import path of the runtime package.
	Runtime string
}

// AllFieldsName is the enumerator that covers every field bit.
const AllFieldsName = "ALL_FIELDS"

// BitName returns the field-bit enumerator for a field name.
func BitName(field string) string {
	return "FIELDS_" + common.ToUpper(field)
}

// Describe builds the artifact description of one definition.
func Describe(def *ir.Definition) Artifact {
	a := Artifact{
		Name:     def.Name,
		Kind:     def.Kind,
		Caps:     KindCapabilities(def.Kind),
		TypeID:   def.TypeID,
		MaxSize:  def.MaxSize,
		Includes: append([]string(nil), def.Includes...),
		Refs:     def.MessageRefs(),
		Argument: def.Argument,
		Result:   def.Result,
		Source:   def.Pos.File,
	}
	if def.HasComposite() {
		a.Caps |= CapMoveConstructor
	}
	if def.Code != nil {
		a.Caps |= CapSparse
		a.Code = &CodeField{
			Name:        def.Code.Name,
			Type:        def.Code.Type,
			Bits:        def.Code.Bits,
			DefaultMask: def.Code.DefaultMask,
			DefaultAll:  def.Code.DefaultAll,
			AllFields:   def.AllFieldsMask(),
		}
	}
	for i, f := range def.Fields {
		a.Fields = append(a.Fields, Field{
			Name:      f.Name,
			Index:     i,
			Type:      f.Type,
			Default:   f.Default,
			Composite: f.Type.Composite(),
			Bit:       def.FieldBit(i),
			BitName:   BitName(f.Name),
		})
	}
	return a
}

// New derives the metadata of every artifact from reg.
func New(reg *ir.Registry) *Metadata {
	md := &Metadata{Registry: reg}
	for _, d := range reg.Definitions() {
		md.Artifacts = append(md.Artifacts, Describe(d))
	}
	for _, sg := range reg.States() {
		st := State{Name: sg.Name, Source: sg.Pos.File}
		for _, p := range sg.Protocols {
			d, _ := reg.Lookup(p)
			st.Members = append(st.Members, Member{Name: d.Name, Kind: d.Kind, TypeID: d.TypeID})
		}
		md.States = append(md.States, st)
	}
	for _, d := range reg.Identified() {
		md.Definitions.Entries = append(md.Definitions.Entries, Member{Name: d.Name, Kind: d.Kind, TypeID: d.TypeID})
	}
	md.Definitions.Max = reg.MaxTypeID()
	return md
}

// Artifact returns the description of the named definition.
func (md *Metadata) Artifact(name string) (Artifact, bool) {
	for _, a := range md.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}
