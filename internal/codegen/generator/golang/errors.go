package golang

import (
	"errors"
	"strings"
)

// ErrGeneration marks schema constructs the Go backend cannot express.
var ErrGeneration = errors.New("go generation error")

// GenerationError names the definition (and field) that cannot be
// rendered as Go.
type GenerationError struct {
	Name  string
	Field string
	Rule  string
	Cause error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("progen: go backend: ")
	if e.Name != "" {
		b.WriteString(`"`)
		b.WriteString(e.Name)
		b.WriteString(`"`)
		if e.Field != "" {
			b.WriteString(` field "`)
			b.WriteString(e.Field)
			b.WriteString(`"`)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Rule)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
