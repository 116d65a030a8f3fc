// Package validation checks the paths and files handed to docfix commands
// before any document is opened or written.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	cerrors "github.com/FocuswithJustin/docfix/core/errors"
	"github.com/FocuswithJustin/docfix/internal/fileutil"
)

// Security limits to prevent DoS attacks (CWE-400).
const (
	// MaxFileSize is the maximum accepted input document size (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrSameFile         = errors.New("output would overwrite input")
	ErrOutputExists     = errors.New("output already exists")
)

// ValidatePath performs path validation without requiring a base directory.
// It checks length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateInput checks that path names a readable regular file of the
// expected type and within the size limit.
func ValidateInput(field, path string) error {
	if err := ValidatePath(path); err != nil {
		return &cerrors.ValidationError{Field: field, Value: path, Message: err.Error(), Err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &cerrors.ValidationError{Field: field, Value: path, Message: err.Error(), Err: err}
	}
	if info.IsDir() {
		return cerrors.NewValidation(field, path+" is a directory")
	}
	if info.Size() > MaxFileSize {
		return cerrors.NewValidation(field, fmt.Sprintf("%s is larger than %d bytes", path, MaxFileSize))
	}

	f, err := os.Open(path)
	if err != nil {
		return &cerrors.ValidationError{Field: field, Value: path, Message: err.Error(), Err: err}
	}
	defer f.Close()
	if _, err := ValidateFileType(f, path); err != nil {
		return &cerrors.ValidationError{Field: field, Value: path, Message: err.Error(), Err: err}
	}
	return nil
}

// ValidateOutput checks that output can be written as a corrected copy of
// input. Writing over the input is refused unless inPlace is set.
func ValidateOutput(input, output string, inPlace bool) error {
	if err := ValidatePath(output); err != nil {
		return &cerrors.ValidationError{Field: "output", Value: output, Message: err.Error(), Err: err}
	}
	if detectFileTypeFromExtension(output) != FileTypeDocx {
		return cerrors.NewValidation("output", output+" does not have a .docx extension")
	}
	dir := filepath.Dir(output)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return cerrors.NewValidation("output", "directory "+dir+" does not exist")
	}
	same := fileutil.SameFile(input, output) || filepath.Clean(input) == filepath.Clean(output)
	if same && !inPlace {
		return &cerrors.ValidationError{
			Field:   "output",
			Value:   output,
			Message: "output is the input document; pass --in-place to overwrite it",
			Err:     ErrSameFile,
		}
	}
	return nil
}

// ValidateAbsent refuses an output path that already exists.
func ValidateAbsent(output string) error {
	if _, err := os.Stat(output); err != nil {
		return nil
	}
	return &cerrors.ValidationError{
		Field:   "output",
		Value:   output,
		Message: output + " already exists; pass -o " + output + " to overwrite it",
		Err:     ErrOutputExists,
	}
}

// FileType represents a validated file type.
type FileType string

const (
	FileTypeDocx   FileType = "docx"
	FileTypeZip    FileType = "zip"
	FileTypeTarXZ  FileType = "tar.xz"
	FileTypeTarGZ  FileType = "tar.gz"
	FileTypeXZ     FileType = "xz"
	FileTypeGzip   FileType = "gzip"
	FileTypeSQLite FileType = "sqlite"
	FileTypeYAML   FileType = "yaml"
	FileTypeRules  FileType = "rules"

	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
	offset   int
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}, 0},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{FileTypeSQLite, []byte("SQLite format 3"), 0},
}

// ValidateFileType validates that a file's content matches its claimed type
// based on filename extension, using the file's magic bytes.
func ValidateFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	expected := detectFileTypeFromExtension(filename)

	switch {
	case expected == FileTypeDocx && detected == FileTypeZip:
		return FileTypeDocx, nil
	case expected == FileTypeTarXZ && detected == FileTypeXZ:
		return FileTypeTarXZ, nil
	case expected == FileTypeTarGZ && detected == FileTypeGzip:
		return FileTypeTarGZ, nil
	case detected == expected:
		return detected, nil
	case detected == FileTypeUnknown && (expected == FileTypeYAML || expected == FileTypeRules):
		if len(buf) == 0 || isLikelyText(buf) {
			return expected, nil
		}
		return FileTypeUnknown, fmt.Errorf("file type mismatch: %s does not look like text", filename)
	case expected == FileTypeDocx:
		return FileTypeUnknown, fmt.Errorf("file type mismatch: %s is not a zip package", filename)
	case detected != FileTypeUnknown && expected != FileTypeUnknown:
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
	case detected == FileTypeUnknown:
		return expected, nil
	default:
		return detected, nil
	}
}

// detectFileTypeFromMagic detects file type from magic bytes.
func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) {
			if bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.fileType
			}
		}
	}
	return FileTypeUnknown
}

// detectFileTypeFromExtension determines expected file type from filename extension.
func detectFileTypeFromExtension(filename string) FileType {
	lower := strings.ToLower(filename)

	if strings.HasSuffix(lower, ".tar.xz") {
		return FileTypeTarXZ
	}
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return FileTypeTarGZ
	}

	switch filepath.Ext(lower) {
	case ".docx", ".docm", ".dotx":
		return FileTypeDocx
	case ".zip":
		return FileTypeZip
	case ".xz":
		return FileTypeXZ
	case ".gz":
		return FileTypeGzip
	case ".sqlite", ".db", ".sqlite3":
		return FileTypeSQLite
	case ".yaml", ".yml":
		return FileTypeYAML
	case ".rules":
		return FileTypeRules
	default:
		return FileTypeUnknown
	}
}

// isLikelyText checks if the buffer contains likely text content.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}

	// Check for null bytes (strong indicator of binary content)
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 continuation and start bytes are neutral
	}

	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
