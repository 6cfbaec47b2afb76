package common

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
)

// GeneratedMarker starts the first line of every artifact progen writes.
const GeneratedMarker = "Code generated by progen"

// FileHeader returns the generated-code notice for a file produced from
// source. Only the base name of source is used so output does not depend on
// where the schema directory lives.
func FileHeader(commentPrefix, source string) string {
	var b strings.Builder
	b.WriteString(commentPrefix)
	b.WriteString(" ")
	b.WriteString(GeneratedMarker)
	if source != "" {
		b.WriteString(" from ")
		b.WriteString(filepath.Base(source))
	}
	b.WriteString(". DO NOT EDIT.\n")
	return b.String()
}

// IsGenerated reports whether data starts with a progen header.
func IsGenerated(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return false
	}
	line := sc.Text()
	return strings.Contains(line, GeneratedMarker) && strings.HasSuffix(line, "DO NOT EDIT.")
}
