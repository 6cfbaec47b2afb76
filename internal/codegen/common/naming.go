package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// commonInitialisms are kept fully upper-case in Go identifiers.
var commonInitialisms = map[string]bool{
	"ACL": true, "API": true, "CPU": true, "DNS": true, "HTTP": true, "ID": true,
	"IP": true, "JSON": true, "RPC": true, "SQL": true, "TCP": true, "TTL": true,
	"UDP": true, "UI": true, "URI": true, "URL": true, "UUID": true, "XML": true,
}

// Words splits an identifier at '_', '-', spaces and case changes.
// Acronym runs stay together: "XMLParser" -> ["XML", "Parser"].
func Words(s string) []string {
	var words []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	}) {
		words = append(words, splitCase(part)...)
	}
	return words
}

func splitCase(s string) []string {
	runes := []rune(s)
	var (
		out   []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		r := runes[i]
		prev := runes[i-1]
		nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && nextIsLower:
		default:
			continue
		}
		out = append(out, string(runes[start:i]))
		start = i
	}
	return append(out, string(runes[start:]))
}

// ToPascalCase converts "user_name" or "userName" to "UserName", keeping
// common initialisms upper-case ("user_id" -> "UserID").
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		if up := strings.ToUpper(w); commonInitialisms[up] {
			b.WriteString(up)
			continue
		}
		b.WriteString(cases.Title(language.Und).String(w))
	}
	return b.String()
}

// ToCamelCase converts to lowerCamelCase.
func ToCamelCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	first := strings.ToLower(words[0])
	return first + ToPascalCase(strings.Join(words[1:], "_"))
}

// ToSnakeCase converts "LoginRequest" or "XMLParser" to "login_request"
// and "xml_parser".
func ToSnakeCase(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// ToUpper upper-cases a name as-is, without inserting separators:
// "userName" -> "USERNAME". Field-bit constants use this form.
func ToUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// ToScreamingSnakeCase converts "LoginRequest" to "LOGIN_REQUEST".
func ToScreamingSnakeCase(s string) string {
	return cases.Upper(language.Und).String(ToSnakeCase(s))
}
