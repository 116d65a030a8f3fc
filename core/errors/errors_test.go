package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "output", Message: "must differ from input"},
			wantMsg:  "validation failed for output: must differ from input",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "invalid format"},
			wantMsg:  "validation failed: invalid format",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/test/file.docx", Err: baseErr},
			wantMsg: "failed to read /test/file.docx: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with path",
			err:      &ParseError{Format: "YAML", Path: "fixes.yaml", Message: "unexpected EOF"},
			wantMsg:  "failed to parse YAML at fixes.yaml: unexpected EOF",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "with position",
			err:      &ParseError{Format: "rules", Path: "fixes.rules", Line: 3, Column: 7, Message: "unexpected token"},
			wantMsg:  "failed to parse rules at fixes.rules:3:7: unexpected token",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without path",
			err:      &ParseError{Format: "XML", Message: "malformed tag"},
			wantMsg:  "failed to parse XML: malformed tag",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	err := &UnsupportedError{Feature: "document", Reason: "missing word/document.xml"}
	if got, want := err.Error(), "unsupported document: missing word/document.xml"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
}

func TestDocumentErrors(t *testing.T) {
	base := fmt.Errorf("no such file or directory")

	t.Run("open", func(t *testing.T) {
		err := &DocumentOpenError{Path: "in.docx", Err: base}
		if got, want := err.Error(), "cannot open document in.docx: no such file or directory"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !errors.Is(err, base) {
			t.Error("DocumentOpenError should unwrap to its cause")
		}
	})

	t.Run("save", func(t *testing.T) {
		err := &DocumentSaveError{Path: "/ro/out.docx", Err: base}
		if got, want := err.Error(), "cannot save document to /ro/out.docx: no such file or directory"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		var saveErr *DocumentSaveError
		if !As(Wrap(err, "apply"), &saveErr) || saveErr.Path != "/ro/out.docx" {
			t.Error("As() should find DocumentSaveError through Wrap")
		}
	})
}

func TestRuleErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantBase error
	}{
		{
			name:     "index out of range",
			err:      &IndexOutOfRangeError{Rule: "fix-19", Index: 19, Len: 12},
			wantMsg:  `rule "fix-19": paragraph 19 out of range (document has 12 paragraphs)`,
			wantBase: ErrOutOfRange,
		},
		{
			name:     "expectation",
			err:      &ExpectationError{Rule: "fix-122", Paragraph: 122, Expected: "her son's needs"},
			wantMsg:  `rule "fix-122": paragraph 122 does not contain expected text "her son's needs"`,
			wantBase: ErrExpectation,
		},
		{
			name:     "ambiguous selector",
			err:      &AmbiguousSelectorError{Rule: "title", Matches: []int{3, 9}},
			wantMsg:  `rule "title": unique selector matched 2 paragraphs [3 9]`,
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !Is(tt.err, tt.wantBase) {
				t.Errorf("Is(%v) = false, want true", tt.wantBase)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewValidation", func(t *testing.T) {
		err := NewValidation("rules", "no rules given")
		if err.Field != "rules" || err.Message != "no rules given" {
			t.Errorf("NewValidation() = %+v, want Field=rules, Message=no rules given", err)
		}
	})

	t.Run("NewIO", func(t *testing.T) {
		baseErr := fmt.Errorf("disk full")
		err := NewIO("write", "/tmp/test", baseErr)
		if err.Operation != "write" || err.Path != "/tmp/test" || err.Err != baseErr {
			t.Errorf("NewIO() = %+v, unexpected values", err)
		}
	})

	t.Run("NewParse", func(t *testing.T) {
		err := NewParse("YAML", "config.yaml", "invalid syntax")
		if err.Format != "YAML" || err.Path != "config.yaml" || err.Message != "invalid syntax" {
			t.Errorf("NewParse() = %+v, unexpected values", err)
		}
	})

	t.Run("NewUnsupported", func(t *testing.T) {
		err := NewUnsupported("format", ".doc is not OOXML")
		if err.Feature != "format" || err.Reason != ".doc is not OOXML" {
			t.Errorf("NewUnsupported() = %+v, unexpected values", err)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrap(baseErr, "context message")
		if wrapped == nil {
			t.Fatal("Wrap() returned nil")
		}
		if !errors.Is(wrapped, baseErr) {
			t.Errorf("Wrap() error does not unwrap to base error")
		}
		wantMsg := "context message: base error"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrap(nil, "context"); got != nil {
			t.Errorf("Wrap(nil) = %v, want nil", got)
		}
	})
}

func TestWrapf(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	wrapped := Wrapf(baseErr, "failed to process %s", "file.docx")
	wantMsg := "failed to process file.docx: base error"
	if wrapped.Error() != wantMsg {
		t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), wantMsg)
	}
	if got := Wrapf(nil, "context %s", "test"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
}
