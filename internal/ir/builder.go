// Package ir turns raw schema entries into the validated in-memory model
// every emitter works from.
package ir

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Alia5/progen/internal/log"
	"github.com/Alia5/progen/internal/schema"
)

// DefaultCodeName is the member name of the presence mask.
const DefaultCodeName = "code"

// CodeFieldTypes maps the accepted presence-mask types to their width.
var CodeFieldTypes = map[string]int{
	"uint8_t":  8,
	"uint16_t": 16,
	"uint32_t": 32,
	"uint64_t": 64,
}

var fieldNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Build converts a loaded schema set into a registry. The index document
// is processed first, then every other document in lexicographic order;
// state groups are resolved last. The first violation aborts the build.
func Build(logger *slog.Logger, set *schema.Set) (*Registry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := NewRegistry()
	var states []schema.Entry

	for _, e := range set.Entries() {
		if e.Tag == schema.TagState {
			states = append(states, e)
			continue
		}
		def, err := NewDefinition(e)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(def); err != nil {
			return nil, err
		}
		logger.Log(context.Background(), log.LevelTrace, "Registered definition", "name", def.Name, "kind", def.Kind.String(), "type_id", def.TypeID)
	}

	for _, e := range states {
		sg := &StateGroup{Name: e.Name, Protocols: e.Protocols, Pos: e.Pos}
		if err := reg.AddState(sg); err != nil {
			return nil, err
		}
	}

	logger.Debug("Built IR", "definitions", reg.Len(), "states", len(reg.States()), "max_type_id", reg.MaxTypeID())
	return reg, nil
}

// NewDefinition validates one entry and converts it into a Definition.
func NewDefinition(e schema.Entry) (*Definition, error) {
	def := &Definition{Name: e.Name, Pos: e.Pos}
	switch e.Tag {
	case schema.TagMessage:
		def.Kind = Message
	case schema.TagRemoteCall:
		def.Kind = RemoteCall
		def.Argument = e.Argument
		def.Result = e.Result
	case schema.TagPlainData:
		def.Kind = PlainData
	default:
		return nil, schema.NewValidationError(e.Tag, e.Name, e.Pos, "not a definition")
	}
	fail := func(rule string) error {
		return schema.NewValidationError(e.Tag, e.Name, e.Pos, rule)
	}

	if !fieldNameRE.MatchString(e.Name) {
		return nil, fail("name must be a valid identifier")
	}

	if def.HasTypeID() {
		id, err := parseUint(e.Attrs[schema.AttrTypeID], 32)
		if err != nil || id == 0 {
			return nil, fail(fmt.Sprintf("type-id %q must be a positive integer", e.Attrs[schema.AttrTypeID]))
		}
		def.TypeID = TypeID(id)

		size, err := parseUint(e.Attrs[schema.AttrMaxSize], 64)
		if err != nil || size == 0 {
			return nil, fail(fmt.Sprintf("max-size %q must be a positive integer", e.Attrs[schema.AttrMaxSize]))
		}
		def.MaxSize = size
	}

	seen := make(map[string]bool, len(e.Fields))
	// Field-bit enumerators are the upper-cased field name.
	bits := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if !fieldNameRE.MatchString(f.Name) {
			return nil, schema.NewFieldError(e.Tag, e.Name, f.Name, f.Pos, "field name must be a valid identifier")
		}
		if seen[f.Name] {
			return nil, schema.NewFieldError(e.Tag, e.Name, f.Name, f.Pos, "field declared twice")
		}
		seen[f.Name] = true
		if prev, ok := bits[strings.ToUpper(f.Name)]; ok {
			return nil, schema.NewFieldError(e.Tag, e.Name, f.Name, f.Pos,
				fmt.Sprintf("field name differs from %q only in case", prev))
		}
		bits[strings.ToUpper(f.Name)] = f.Name
		t, err := ParseType(f.Type)
		if err != nil {
			return nil, &schema.ValidationError{Tag: e.Tag, Name: e.Name, Field: f.Name, Pos: f.Pos, Rule: "invalid type", Cause: err}
		}
		if t.Kind == KindMessage && t.Name == e.Name {
			return nil, schema.NewFieldError(e.Tag, e.Name, f.Name, f.Pos, "a definition cannot contain itself")
		}
		dflt := strings.TrimSpace(f.Default)
		if dflt == "" {
			return nil, schema.NewFieldError(e.Tag, e.Name, f.Name, f.Pos, "field default must not be empty")
		}
		def.Fields = append(def.Fields, FieldSpec{Name: f.Name, Type: t, Default: dflt, Pos: f.Pos})
	}

	code, err := buildCodeField(e, def)
	if err != nil {
		return nil, err
	}
	def.Code = code

	seenInc := map[string]bool{}
	for _, inc := range e.Includes {
		if !seenInc[inc] {
			seenInc[inc] = true
			def.Includes = append(def.Includes, inc)
		}
	}
	return def, nil
}

func buildCodeField(e schema.Entry, def *Definition) (*CodeField, error) {
	typ, ok := e.Attr(schema.AttrCodeField)
	if !ok || strings.TrimSpace(typ) == "" {
		if v, ok := e.Attr(schema.AttrDefaultCode); ok && v != "0" && v != "" {
			return nil, schema.NewValidationError(e.Tag, e.Name, e.Pos, "default-code requires code-field")
		}
		return nil, nil
	}
	typ = strings.TrimSpace(typ)
	bits, ok := CodeFieldTypes[typ]
	if !ok {
		return nil, schema.NewValidationError(e.Tag, e.Name, e.Pos,
			fmt.Sprintf("code-field type %q must be one of uint8_t, uint16_t, uint32_t, uint64_t", typ))
	}
	if len(def.Fields) > bits {
		return nil, schema.NewValidationError(e.Tag, e.Name, e.Pos,
			fmt.Sprintf("%d fields do not fit in a %d-bit code-field", len(def.Fields), bits))
	}

	name := DefaultCodeName
	if v, ok := e.Attr(schema.AttrCodeName); ok && v != "" {
		name = v
	}
	if !fieldNameRE.MatchString(name) {
		return nil, schema.NewValidationError(e.Tag, e.Name, e.Pos, fmt.Sprintf("code-name %q must be a valid identifier", name))
	}
	for _, f := range def.Fields {
		if f.Name == name {
			return nil, schema.NewFieldError(e.Tag, e.Name, f.Name, f.Pos, "field name collides with the code-field member")
		}
	}

	cf := &CodeField{Name: name, Type: typ, Bits: bits}
	raw := strings.TrimSpace(e.Attrs[schema.AttrDefaultCode])
	mask, all, err := parseDefaultCode(raw, def)
	if err != nil {
		return nil, &schema.ValidationError{Tag: e.Tag, Name: e.Name, Pos: e.Pos, Rule: "invalid default-code", Cause: err}
	}
	cf.DefaultMask = mask
	cf.DefaultAll = all
	return cf, nil
}

// parseDefaultCode accepts "" or "0", "ALL", an unsigned literal, or
// field names joined with '|'.
func parseDefaultCode(raw string, def *Definition) (mask uint64, all bool, err error) {
	allMask := def.AllFieldsMask()
	switch {
	case raw == "":
		return 0, false, nil
	case raw == "ALL" || raw == "ALL_FIELDS" || raw == "ALLFIELDS":
		return allMask, true, nil
	}
	if v, perr := parseUint(raw, 64); perr == nil {
		if v&^allMask != 0 {
			return 0, false, fmt.Errorf("mask %#x has bits outside ALL_FIELDS (%#x)", v, allMask)
		}
		return v, v == allMask && len(def.Fields) > 0, nil
	}
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		idx := -1
		for i, f := range def.Fields {
			if f.Name == part || "FIELDS_"+strings.ToUpper(f.Name) == part {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0, false, fmt.Errorf("%q is not a field", part)
		}
		mask |= def.FieldBit(idx)
	}
	return mask, mask == allMask, nil
}

func parseUint(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "uUlL")
	return strconv.ParseUint(s, 0, bits)
}
