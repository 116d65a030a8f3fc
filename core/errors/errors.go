// Package errors provides standardized error types and helpers for docfix.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrOutOfRange indicates a paragraph index beyond the end of the document
	ErrOutOfRange = errors.New("index out of range")
	// ErrExpectation indicates a rule's asserted "before" state did not hold
	ErrExpectation = errors.New("expectation failed")
)

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "rules", "YAML", "document.xml")
	Path    string // File path, if applicable
	Line    int    // 1-based line, 0 when unknown
	Column  int    // 1-based column, 0 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	where := e.Path
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", e.Path, e.Line, e.Column)
	}
	if where != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, where, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// DocumentOpenError is returned when an input document is missing, unreadable
// or structurally corrupt. No rule has been applied when it is returned.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("cannot open document %s: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error {
	return e.Err
}

// DocumentSaveError is returned when the corrected document cannot be written.
// In-memory corrections are intact, so the caller may retry with another path.
type DocumentSaveError struct {
	Path string
	Err  error
}

func (e *DocumentSaveError) Error() string {
	return fmt.Sprintf("cannot save document to %s: %v", e.Path, e.Err)
}

func (e *DocumentSaveError) Unwrap() error {
	return e.Err
}

// IndexOutOfRangeError reports an absolute paragraph selector that points past
// the end of the document.
type IndexOutOfRangeError struct {
	Rule  string // Rule label
	Index int    // Requested paragraph index
	Len   int    // Paragraph count of the document
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("rule %q: paragraph %d out of range (document has %d paragraphs)", e.Rule, e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// ExpectationError reports a rule whose asserted text is absent from its
// target paragraph.
type ExpectationError struct {
	Rule      string
	Paragraph int
	Expected  string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("rule %q: paragraph %d does not contain expected text %q", e.Rule, e.Paragraph, e.Expected)
}

func (e *ExpectationError) Unwrap() error {
	return ErrExpectation
}

// AmbiguousSelectorError reports a selector marked unique that matched zero
// or several paragraphs.
type AmbiguousSelectorError struct {
	Rule    string
	Matches []int
}

func (e *AmbiguousSelectorError) Error() string {
	return fmt.Sprintf("rule %q: unique selector matched %d paragraphs %v", e.Rule, len(e.Matches), e.Matches)
}

func (e *AmbiguousSelectorError) Unwrap() error {
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
