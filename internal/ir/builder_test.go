package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/progen/internal/schema"
)

func message(name, id string, fields ...schema.Field) schema.Entry {
	return schema.Entry{
		Tag:    schema.TagMessage,
		Name:   name,
		Attrs:  map[string]string{schema.AttrName: name, schema.AttrTypeID: id, schema.AttrMaxSize: "128"},
		Fields: fields,
		Pos:    schema.Pos{File: name + ".xml", Line: 1},
	}
}

func plain(name string, fields ...schema.Field) schema.Entry {
	return schema.Entry{
		Tag:    schema.TagPlainData,
		Name:   name,
		Attrs:  map[string]string{schema.AttrName: name},
		Fields: fields,
		Pos:    schema.Pos{File: name + ".xml", Line: 1},
	}
}

func rpc(name, id, arg, res string) schema.Entry {
	return schema.Entry{
		Tag:      schema.TagRemoteCall,
		Name:     name,
		Attrs:    map[string]string{schema.AttrName: name, schema.AttrTypeID: id, schema.AttrMaxSize: "64"},
		Argument: arg,
		Result:   res,
		Pos:      schema.Pos{File: name + ".xml", Line: 2},
	}
}

func state(name string, protocols ...string) schema.Entry {
	return schema.Entry{Tag: schema.TagState, Name: name, Protocols: protocols, Pos: schema.Pos{File: "index.xml", Line: 1}}
}

func field(name, typ, def string) schema.Field {
	return schema.Field{Name: name, Type: typ, Default: def}
}

func setOf(entries ...schema.Entry) *schema.Set {
	return &schema.Set{Documents: []schema.Document{{Path: "all.xml", Entries: entries}}}
}

func TestBuildPreservesFirstSeenOrder(t *testing.T) {
	reg, err := Build(nil, setOf(
		message("Zeta", "5"),
		plain("Alpha"),
		message("Mid", "2"),
	))
	require.NoError(t, err)

	var names []string
	for _, d := range reg.Definitions() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)

	var byID []string
	for _, d := range reg.Identified() {
		byID = append(byID, d.Name)
	}
	assert.Equal(t, []string{"Mid", "Zeta"}, byID)
	assert.Equal(t, TypeID(5), reg.MaxTypeID())
}

func TestBuildDuplicateTypeID(t *testing.T) {
	_, err := Build(nil, setOf(message("A", "7"), message("B", "7")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))

	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "B", dup.Name)
	assert.Equal(t, "A", dup.Existing)
	assert.Equal(t, `progen: duplicate type-id 7: message "B" (B.xml:1) collides with "A"; type ids must be unique`, err.Error())
}

func TestBuildRemoteCallReferences(t *testing.T) {
	tests := []struct {
		name    string
		entries []schema.Entry
		wantErr error
		wantMsg string
	}{
		{
			name:    "resolved",
			entries: []schema.Entry{plain("Arg"), plain("Res"), rpc("Echo", "1", "Arg", "Res")},
		},
		{
			name:    "argument undefined",
			entries: []schema.Entry{plain("Res"), rpc("Echo", "1", "Nope", "Res")},
			wantErr: ErrUnresolvedReference,
			wantMsg: `progen: unresolved reference: remote-call "Echo" (Echo.xml:2): argument "Nope" is not defined before use`,
		},
		{
			name:    "result declared after the call",
			entries: []schema.Entry{plain("Arg"), rpc("Echo", "1", "Arg", "Res"), plain("Res")},
			wantErr: ErrUnresolvedReference,
		},
		{
			name:    "argument is another remote-call",
			entries: []schema.Entry{plain("Arg"), rpc("Inner", "1", "Arg", "Arg"), rpc("Outer", "2", "Inner", "Arg")},
			wantErr: ErrUnresolvedReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Build(nil, setOf(tt.entries...))
			if tt.wantErr == nil {
				require.NoError(t, err)
				d, ok := reg.Lookup("Echo")
				require.True(t, ok)
				assert.Equal(t, RemoteCall, d.Kind)
				assert.Equal(t, "Arg", d.Argument)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
		})
	}
}

func TestCodeFieldBitsFollowDeclarationOrder(t *testing.T) {
	e := message("Login", "1", field("a", "int", "0"), field("b", "std::string", `""`), field("c", "bool", "false"))
	e.Attrs[schema.AttrCodeField] = "uint32_t"
	reg, err := Build(nil, setOf(e))
	require.NoError(t, err)

	d, _ := reg.Lookup("Login")
	require.NotNil(t, d.Code)
	assert.Equal(t, "code", d.Code.Name)
	assert.Equal(t, 32, d.Code.Bits)
	assert.Equal(t, []uint64{1, 2, 4}, []uint64{d.FieldBit(0), d.FieldBit(1), d.FieldBit(2)})
	assert.Equal(t, uint64(7), d.AllFieldsMask())
	assert.Equal(t, uint64(0), d.Code.DefaultMask)
}

func TestDefaultCode(t *testing.T) {
	tests := []struct {
		raw     string
		mask    uint64
		all     bool
		wantErr bool
	}{
		{raw: "", mask: 0},
		{raw: "0", mask: 0},
		{raw: "ALL", mask: 7, all: true},
		{raw: "0x5", mask: 5},
		{raw: "7", mask: 7, all: true},
		{raw: "a|c", mask: 5},
		{raw: "FIELDS_B", mask: 2},
		{raw: "8", wantErr: true},
		{raw: "a|zzz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			e := message("M", "1", field("a", "int", "0"), field("b", "int", "0"), field("c", "int", "0"))
			e.Attrs[schema.AttrCodeField] = "uint8_t"
			e.Attrs[schema.AttrDefaultCode] = tt.raw
			d, err := NewDefinition(e)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, schema.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mask, d.Code.DefaultMask)
			assert.Equal(t, tt.all, d.Code.DefaultAll)
		})
	}
}

func TestNewDefinitionValidation(t *testing.T) {
	tests := []struct {
		name  string
		entry func() schema.Entry
	}{
		{"zero type id", func() schema.Entry { return message("M", "0") }},
		{"non numeric type id", func() schema.Entry { return message("M", "abc") }},
		{"bad max size", func() schema.Entry {
			e := message("M", "1")
			e.Attrs[schema.AttrMaxSize] = "-1"
			return e
		}},
		{"duplicate field", func() schema.Entry {
			return message("M", "1", field("a", "int", "0"), field("a", "int", "0"))
		}},
		{"fields differ only in case", func() schema.Entry {
			return message("M", "1", field("userName", "int", "0"), field("username", "int", "0"))
		}},
		{"bad field type", func() schema.Entry { return message("M", "1", field("a", "std::vector<int", "{}")) }},
		{"self reference", func() schema.Entry { return message("M", "1", field("a", "M", "{}")) }},
		{"empty default", func() schema.Entry { return message("M", "1", field("a", "int", "  ")) }},
		{"unsupported code type", func() schema.Entry {
			e := message("M", "1")
			e.Attrs[schema.AttrCodeField] = "int"
			return e
		}},
		{"too many fields for mask", func() schema.Entry {
			var fs []schema.Field
			for i := 0; i < 9; i++ {
				fs = append(fs, field(string(rune('a'+i)), "int", "0"))
			}
			e := message("M", "1", fs...)
			e.Attrs[schema.AttrCodeField] = "uint8_t"
			return e
		}},
		{"default code without code field", func() schema.Entry {
			e := message("M", "1")
			e.Attrs[schema.AttrDefaultCode] = "ALL"
			return e
		}},
		{"field named like mask", func() schema.Entry {
			e := message("M", "1", field("code", "int", "0"))
			e.Attrs[schema.AttrCodeField] = "uint8_t"
			return e
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(tt.entry())
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrValidation))
			assert.Contains(t, err.Error(), `"M"`)
		})
	}
}

func TestFieldBitNamesAreUnique(t *testing.T) {
	_, err := NewDefinition(message("M", "1", field("userName", "int", "0"), field("username", "int", "0")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `differs from "userName" only in case`)

	_, err = NewDefinition(message("M", "1", field("user_name", "int", "0"), field("userName", "int", "0")))
	assert.NoError(t, err)
}

func TestBuildStates(t *testing.T) {
	reg, err := Build(nil, setOf(
		state("login", "Login", "Echo"),
		message("Login", "1"),
		plain("Arg"),
		rpc("Echo", "2", "Arg", "Arg"),
	))
	require.NoError(t, err)
	require.Len(t, reg.States(), 1)
	assert.Equal(t, []string{"Login", "Echo"}, reg.States()[0].Protocols)

	_, err = Build(nil, setOf(state("s", "Missing"), message("Login", "1")))
	assert.True(t, errors.Is(err, ErrUnresolvedReference))

	_, err = Build(nil, setOf(state("s", "Arg"), plain("Arg")))
	assert.True(t, errors.Is(err, ErrUnresolvedReference))

	_, err = Build(nil, setOf(state("s", "Login"), state("s", "Login"), message("Login", "1")))
	assert.True(t, errors.Is(err, schema.ErrValidation))
}

func TestBuildDuplicateName(t *testing.T) {
	_, err := Build(nil, setOf(plain("A"), message("A", "1")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrValidation))
}

func TestIncludesDeduplicated(t *testing.T) {
	e := plain("P")
	e.Includes = []string{"b.h", "a.h", "b.h"}
	d, err := NewDefinition(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.h", "a.h"}, d.Includes)
}
