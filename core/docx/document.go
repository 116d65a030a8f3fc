// Package docx reads and edits the body paragraphs of Word (.docx) documents.
//
// Only the text of body-level paragraphs is addressable. Edits are spliced
// into word/document.xml at the byte ranges of the affected text elements, so
// every other part of the package and every untouched run is written back
// exactly as it was read.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/docfix/core/encoding"
	cerrors "github.com/FocuswithJustin/docfix/core/errors"
	"github.com/FocuswithJustin/docfix/core/xml"
	"github.com/FocuswithJustin/docfix/internal/fileutil"
)

const (
	documentPart   = "word/document.xml"
	propertiesPart = "docProps/core.xml"

	bodyParagraphs = "/*[local-name()='document']/*[local-name()='body']/*[local-name()='p']"
)

// readFile is injectable for testing.
var readFile = os.ReadFile

// Document is an opened .docx package.
type Document struct {
	path  string
	src   []byte
	zr    *zip.Reader
	part  []byte
	paras []*Paragraph
}

// Properties holds core document properties from docProps/core.xml.
type Properties struct {
	Title          string
	Creator        string
	LastModifiedBy string
	Revision       string
}

// Open reads and parses the document at path.
func Open(path string) (*Document, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, &cerrors.DocumentOpenError{Path: path, Err: err}
	}
	doc, err := Read(data)
	if err != nil {
		return nil, &cerrors.DocumentOpenError{Path: path, Err: err}
	}
	doc.path = path
	return doc, nil
}

// Read parses a document from its package bytes.
func Read(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &cerrors.ParseError{Format: "docx", Message: "not a zip package", Err: err}
	}

	part, err := readEntry(zr, documentPart)
	if err != nil {
		return nil, err
	}

	paras, err := scanParagraphs(part)
	if err != nil {
		return nil, err
	}

	return &Document{src: data, zr: zr, part: part, paras: paras}, nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, cerrors.NewIO("open", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, cerrors.NewIO("read", name, err)
		}
		return data, nil
	}
	return nil, cerrors.NewUnsupported("docx package", "missing "+name)
}

// Path returns the path the document was opened from, if any.
func (d *Document) Path() string { return d.path }

// Len returns the number of body paragraphs.
func (d *Document) Len() int { return len(d.paras) }

// Text returns the text of paragraph i.
func (d *Document) Text(i int) string { return d.paras[i].text }

// Style returns the style id of paragraph i.
func (d *Document) Style(i int) string { return d.paras[i].style }

// SetText replaces the text of paragraph i. Characters that cannot appear in
// XML are dropped.
func (d *Document) SetText(i int, text string) {
	d.paras[i].text = encoding.StripInvalidXMLChars(text)
}

// Paragraphs returns the body paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	out := make([]*Paragraph, len(d.paras))
	copy(out, d.paras)
	return out
}

// Modified reports whether any paragraph text has changed.
func (d *Document) Modified() bool {
	for _, p := range d.paras {
		if p.Modified() {
			return true
		}
	}
	return false
}

// Hash returns the BLAKE3 hex digest of the package as read.
func (d *Document) Hash() string { return Fingerprint(d.src) }

// Fingerprint returns the BLAKE3 hex digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// render returns document.xml carrying the current paragraph texts.
func (d *Document) render() []byte {
	var patches []patch
	for _, p := range d.paras {
		patches = append(patches, p.patches(d.part)...)
	}
	return applyPatches(d.part, patches)
}

// verify checks that part is well-formed and still has n body paragraphs.
func verify(part []byte, n int) error {
	if res := xml.Validate(part); !res.Valid {
		msg := "malformed XML"
		if len(res.Errors) > 0 {
			msg = fmt.Sprintf("offset %d: %s", res.Errors[0].Offset, res.Errors[0].Message)
		}
		return cerrors.NewValidation(documentPart, msg)
	}
	doc, err := xml.Parse(part)
	if err != nil {
		return cerrors.NewValidation(documentPart, err.Error())
	}
	count, err := doc.Count(bodyParagraphs)
	if err != nil {
		return err
	}
	if count != n {
		return cerrors.NewValidation(documentPart, fmt.Sprintf("expected %d body paragraphs, found %d", n, count))
	}
	return nil
}

// Bytes returns the package with the current paragraph texts. An unmodified
// document is returned byte for byte as read.
func (d *Document) Bytes() ([]byte, error) {
	if !d.Modified() {
		return d.src, nil
	}

	part := d.render()
	if err := verify(part, len(d.paras)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range d.zr.File {
		if f.Name != documentPart {
			if err := zw.Copy(f); err != nil {
				return nil, cerrors.NewIO("copy", f.Name, err)
			}
			continue
		}
		hdr := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, cerrors.NewIO("write", f.Name, err)
		}
		if _, err := w.Write(part); err != nil {
			return nil, cerrors.NewIO("write", f.Name, err)
		}
	}
	if d.zr.Comment != "" {
		if err := zw.SetComment(d.zr.Comment); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, cerrors.NewIO("write", "docx package", err)
	}
	return buf.Bytes(), nil
}

// Save writes the document to path atomically and returns the fingerprint of
// the bytes written. On failure the document keeps its in-memory edits and an
// existing file at path is left untouched.
func (d *Document) Save(path string) (string, error) {
	data, err := d.Bytes()
	if err != nil {
		return "", &cerrors.DocumentSaveError{Path: path, Err: err}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0644); err != nil {
		return "", &cerrors.DocumentSaveError{Path: path, Err: err}
	}
	return Fingerprint(data), nil
}

// Properties reads the core document properties. A package without
// docProps/core.xml yields empty properties.
func (d *Document) Properties() (Properties, error) {
	var props Properties
	data, err := readEntry(d.zr, propertiesPart)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrUnsupported) {
			return props, nil
		}
		return props, err
	}
	doc, err := xml.Parse(data)
	if err != nil {
		return props, &cerrors.ParseError{Format: "XML", Path: propertiesPart, Message: err.Error(), Err: err}
	}

	for _, f := range []struct {
		local string
		dst   *string
	}{
		{"title", &props.Title},
		{"creator", &props.Creator},
		{"lastModifiedBy", &props.LastModifiedBy},
		{"revision", &props.Revision},
	} {
		n, err := doc.XPathFirst("/*[local-name()='coreProperties']/*[local-name()='" + f.local + "']")
		if err != nil {
			return props, err
		}
		*f.dst = strings.TrimSpace(n.Text())
	}
	return props, nil
}
