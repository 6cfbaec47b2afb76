package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaming(t *testing.T) {
	tests := []struct {
		in       string
		pascal   string
		camel    string
		snake    string
		screamed string
	}{
		{in: "user_name", pascal: "UserName", camel: "userName", snake: "user_name", screamed: "USER_NAME"},
		{in: "userName", pascal: "UserName", camel: "userName", snake: "user_name", screamed: "USER_NAME"},
		{in: "LoginRequest", pascal: "LoginRequest", camel: "loginRequest", snake: "login_request", screamed: "LOGIN_REQUEST"},
		{in: "XMLParser", pascal: "XMLParser", camel: "xmlParser", snake: "xml_parser", screamed: "XML_PARSER"},
		{in: "user_id", pascal: "UserID", camel: "userID", snake: "user_id", screamed: "USER_ID"},
		{in: "level2Up", pascal: "Level2Up", camel: "level2Up", snake: "level2_up", screamed: "LEVEL2_UP"},
		{in: "x", pascal: "X", camel: "x", snake: "x", screamed: "X"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.pascal, ToPascalCase(tt.in))
			assert.Equal(t, tt.camel, ToCamelCase(tt.in))
			assert.Equal(t, tt.snake, ToSnakeCase(tt.in))
			assert.Equal(t, tt.screamed, ToScreamingSnakeCase(tt.in))
		})
	}
	assert.Equal(t, "USERNAME", ToUpper("userName"))
}

func TestFileHeader(t *testing.T) {
	h := FileHeader("//", "/tmp/schema/login.xml")
	assert.Equal(t, "// Code generated by progen from login.xml. DO NOT EDIT.\n", h)
	assert.True(t, IsGenerated([]byte(h+"package x\n")))
	assert.False(t, IsGenerated([]byte("package x\n")))
	assert.False(t, IsGenerated(nil))
}

func TestVersion(t *testing.T) {
	v, err := GetVersion()
	assert.NoError(t, err)
	assert.Equal(t, "0.0.1-dev", v)

	r := ParseVersion("1.2.3-dirty")
	assert.Equal(t, []int{1, 2, 3}, []int{r.Major, r.Minor, r.Patch})
	assert.Equal(t, "dirty", r.Suffix)
	assert.Equal(t, []any{"major", 0, "minor", 0, "patch", 1}, ParseVersion(DevVersion).LogAttrs())

	defer func(v string) { Version = v }(Version)
	Version = "v2.0.1"
	v, err = GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "2.0.1", v)

	Version = "nightly"
	_, err = GetVersion()
	assert.Error(t, err)
}
