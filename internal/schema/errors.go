package schema

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for the two document failure classes.
var (
	// ErrParse indicates a document that is not well-formed markup.
	// Documents failing with ErrParse are skipped by the loader.
	ErrParse = errors.New("progen: malformed schema document")
	// ErrValidation indicates a well-formed document that violates the
	// schema vocabulary. It aborts the run.
	ErrValidation = errors.New("progen: schema validation failed")
)

// Pos is a location inside a schema document.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return ""
	}
	if p.Line <= 0 {
		return filepath.Base(p.File)
	}
	return fmt.Sprintf("%s:%d", filepath.Base(p.File), p.Line)
}

// ParseError represents a document that could not be parsed.
type ParseError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("progen: parse error in ")
	b.WriteString(e.Path)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ValidationError represents a schema entry that breaks a vocabulary rule:
// a missing required attribute, a field without a default, a bad literal.
type ValidationError struct {
	Tag   Tag    // entry tag, e.g. "message"
	Name  string // definition name, empty when the name itself is missing
	Field string // field name (if applicable)
	Pos   Pos
	Rule  string
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("progen: schema validation")
	if e.Tag != "" {
		b.WriteString(": ")
		b.WriteString(string(e.Tag))
		if e.Name != "" {
			fmt.Fprintf(&b, " %q", e.Name)
		}
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if pos := e.Pos.String(); pos != "" {
		b.WriteString(" (")
		b.WriteString(pos)
		b.WriteString(")")
	}
	if e.Rule != "" {
		b.WriteString(": ")
		b.WriteString(e.Rule)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError for an entry.
func NewValidationError(tag Tag, name string, pos Pos, rule string) *ValidationError {
	return &ValidationError{Tag: tag, Name: name, Pos: pos, Rule: rule}
}

// NewFieldError creates a new ValidationError scoped to one field of an entry.
func NewFieldError(tag Tag, name, field string, pos Pos, rule string) *ValidationError {
	return &ValidationError{Tag: tag, Name: name, Field: field, Pos: pos, Rule: rule}
}

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
