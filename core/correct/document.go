// Package correct implements an ordered, auditable find-and-replace pass over
// the paragraphs of a document.
//
// Rules are applied strictly in declaration order, and every rule sees the
// paragraph text produced by the rules before it. A rule set whose later rule
// searches for text an earlier rule introduced is therefore order dependent;
// Lint reports such pairs. The engine works on a snapshot and only writes
// back to the document once the whole pass has succeeded, so a fatal error
// never leaves a partially corrected document behind.
package correct

// Document is the paragraph sequence the engine borrows for one pass.
// Indices are only meaningful for the lifetime of one open document.
type Document interface {
	Len() int
	Text(i int) string
	SetText(i int, text string)
}

// StyledDocument is implemented by documents that know the style name of
// each paragraph. Style selectors match nothing on plain Documents.
type StyledDocument interface {
	Document
	Style(i int) string
}

// Lines is an in-memory Document backed by a string slice.
type Lines []string

func (l Lines) Len() int                   { return len(l) }
func (l Lines) Text(i int) string          { return l[i] }
func (l Lines) SetText(i int, text string) { l[i] = text }

// snapshot is the working copy a run mutates before committing.
type snapshot struct {
	texts  []string
	styles []string
}

func takeSnapshot(doc Document) *snapshot {
	n := doc.Len()
	s := &snapshot{texts: make([]string, n), styles: make([]string, n)}
	styled, _ := doc.(StyledDocument)
	for i := 0; i < n; i++ {
		s.texts[i] = doc.Text(i)
		if styled != nil {
			s.styles[i] = styled.Style(i)
		}
	}
	return s
}

func (s *snapshot) Len() int                   { return len(s.texts) }
func (s *snapshot) Text(i int) string          { return s.texts[i] }
func (s *snapshot) SetText(i int, text string) { s.texts[i] = text }
func (s *snapshot) Style(i int) string         { return s.styles[i] }
