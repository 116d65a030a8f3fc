package docx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	cerrors "github.com/FocuswithJustin/docfix/core/errors"
)

// WordprocessingML main namespaces (transitional and strict).
const (
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordStrictNS = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

type segKind int

const (
	segText  segKind = iota // <w:t>
	segTab                  // <w:tab/> inside a run
	segBreak                // <w:br/> or <w:cr/> inside a run
)

// segment is one text-bearing element of a paragraph, located by the byte
// range of the whole element within document.xml.
type segment struct {
	kind   segKind
	start  int64
	end    int64
	prefix string
	text   string
}

func isW(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == wordNS || n.Space == wordStrictNS)
}

// excluded subtrees hold text that is not part of the paragraph's own run
// content: deletions, text boxes and drawings.
func excluded(n xml.Name) bool {
	if n.Local == "AlternateContent" {
		return true
	}
	for _, local := range []string{"del", "moveFrom", "txbxContent", "drawing", "pict", "object"} {
		if isW(n, local) {
			return true
		}
	}
	return false
}

// prefixAt returns the namespace prefix of the element tag starting at off.
func prefixAt(part []byte, off int64) string {
	i := int(off) + 1
	for j := i; j < len(part); j++ {
		switch part[j] {
		case ':':
			return string(part[i:j])
		case ' ', '\t', '\r', '\n', '>', '/':
			return ""
		}
	}
	return ""
}

// scanParagraphs locates the body-level paragraphs of document.xml and the
// byte ranges of their text elements. Paragraphs nested in tables, text
// boxes or content controls are not body-level and are not returned.
func scanParagraphs(part []byte) ([]*Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(part))

	var (
		paras []*Paragraph
		stack []xml.Name
		cur   *Paragraph
		skip  int
		open  *segment
		text  strings.Builder
	)

	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &cerrors.ParseError{Format: "document.xml", Message: err.Error(), Err: err}
		}
		after := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			var parent xml.Name
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, t.Name)

			switch {
			case cur == nil:
				if isW(t.Name, "p") && isW(parent, "body") {
					cur = &Paragraph{
						index:       len(paras),
						start:       off,
						startTagEnd: after,
						depth:       len(stack),
						prefix:      prefixAt(part, off),
					}
				}
			case skip > 0:
			case excluded(t.Name):
				skip = len(stack)
			case isW(t.Name, "pStyle") && isW(parent, "pPr") && len(stack) == cur.depth+2:
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						cur.style = a.Value
					}
				}
			case isW(parent, "r") && isW(t.Name, "t"):
				open = &segment{kind: segText, start: off, prefix: prefixAt(part, off)}
				text.Reset()
			case isW(parent, "r") && isW(t.Name, "tab"):
				open = &segment{kind: segTab, start: off, text: "\t"}
			case isW(parent, "r") && (isW(t.Name, "br") || isW(t.Name, "cr")):
				open = &segment{kind: segBreak, start: off, text: "\n"}
			}

		case xml.CharData:
			if open != nil && open.kind == segText && skip == 0 {
				text.Write(t)
			}

		case xml.EndElement:
			depth := len(stack)
			stack = stack[:len(stack)-1]
			if cur == nil {
				continue
			}
			if skip > 0 {
				if depth == skip {
					skip = 0
				}
				continue
			}

			switch {
			case open != nil:
				// text, tab and break elements have no element children
				if open.kind == segText {
					open.text = text.String()
				}
				open.end = after
				cur.segs = append(cur.segs, *open)
				open = nil
			case depth == cur.depth && isW(t.Name, "p"):
				cur.end = after
				cur.closeAt = off
				cur.orig = cur.joined()
				cur.text = cur.orig
				paras = append(paras, cur)
				cur = nil
			}
		}
	}

	return paras, nil
}
