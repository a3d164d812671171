package errors

import "fmt"

// Sentinels for errors.Is matching. Any BaseError carrying the same code
// matches, regardless of message or location.
var (
	// ErrNotFound is returned when no class in the unit satisfies the
	// Row-class locator.
	ErrNotFound = New(NotFoundErrorCode, "no eligible row class found")

	// ErrNoEligibleMembers is reported when the located class has no
	// property with both accessors.
	ErrNoEligibleMembers = New(NoEligibleMembersErrorCode, "row class has no eligible properties")

	// ErrMalformedAnnotationArgument is returned when an annotation or its
	// argument list cannot be parsed.
	ErrMalformedAnnotationArgument = New(MalformedAnnotationErrorCode, "malformed annotation argument")
)

// MalformedAnnotationError describes an annotation that could not be parsed.
type MalformedAnnotationError struct {
	*BaseError
	Annotation string // raw annotation text, possibly truncated
	Offset     int    // byte offset of the annotation in the source
}

// NewMalformedAnnotationError creates a malformed annotation error for the
// raw text found at the given byte offset.
func NewMalformedAnnotationError(raw string, offset int, cause error) *MalformedAnnotationError {
	message := fmt.Sprintf("cannot parse annotation %q", truncate(raw, 60))
	base := Wrap(MalformedAnnotationErrorCode, message, cause).
		WithContext("offset", offset).
		WithSuggestion("Check that brackets, parentheses and string literals in the annotation are balanced")
	return &MalformedAnnotationError{
		BaseError:  base,
		Annotation: raw,
		Offset:     offset,
	}
}

// WithLocation adds location information to the error
func (e *MalformedAnnotationError) WithLocation(loc SourceLocation) *MalformedAnnotationError {
	e.BaseError.WithLocation(loc)
	return e
}

// NewNotFoundError reports that none of the named classes qualified.
func NewNotFoundError(file string, candidates []string) *BaseError {
	err := Wrap(NotFoundErrorCode, "no eligible row class found", nil).
		WithLocation(SourceLocation{File: file})
	if len(candidates) > 0 {
		err.WithContext("classes", candidates)
		err.WithSuggestion("Row classes are named *Row and must not derive from a RowFieldsBase type")
	}
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
