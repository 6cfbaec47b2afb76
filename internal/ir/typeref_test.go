package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in        string
		kind      TypeKind
		canonical string
		refs      []string
	}{
		{in: "int32_t", kind: KindScalar, canonical: "int32_t"},
		{in: "long   long", kind: KindScalar, canonical: "long long"},
		{in: "std::string", kind: KindString, canonical: "std::string"},
		{in: "string", kind: KindString, canonical: "std::string"},
		{in: "vector<uint8_t>", kind: KindContainer, canonical: "std::vector<uint8_t>"},
		{in: "std::map<int, std::vector<Item>>", kind: KindContainer, canonical: "std::map<int, std::vector<Item>>", refs: []string{"Item"}},
		{in: "std::pair<Item, Other>", kind: KindContainer, canonical: "std::pair<Item, Other>", refs: []string{"Item", "Other"}},
		{in: "std::unordered_set<std::string>", kind: KindContainer, canonical: "std::unordered_set<std::string>"},
		{in: "Player", kind: KindMessage, canonical: "Player", refs: []string{"Player"}},
		{in: "game::Player", kind: KindMessage, canonical: "game::Player", refs: []string{"game::Player"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.canonical, got.String())
			assert.Equal(t, tt.refs, got.MessageRefs())
			assert.Equal(t, tt.kind != KindScalar, got.Composite())
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"std::vector",
		"std::vector<int",
		"std::vector<int>>",
		"std::map<int>",
		"std::vector<int, int>",
		"std::array<int, 3>",
		"unsigned int",
		"std::vector<>",
		"int,",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseType(in)
			assert.Error(t, err)
		})
	}
}

func TestIsBasicType(t *testing.T) {
	assert.True(t, IsBasicType("uint64_t"))
	assert.True(t, IsBasicType("long long"))
	assert.False(t, IsBasicType("std::string"))
	assert.False(t, IsBasicType("Item"))
}
