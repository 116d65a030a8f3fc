package docx

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/FocuswithJustin/docfix/core/encoding"
)

// Paragraph is a body-level <w:p> element. Its text is the concatenation of
// its runs' text, tab and break elements.
type Paragraph struct {
	index       int
	start       int64 // offset of "<w:p"
	startTagEnd int64 // offset just past the start tag
	end         int64 // offset just past the element
	closeAt     int64 // offset of "</w:p>"; equals end when self-closing
	depth       int
	prefix      string
	style       string
	segs        []segment
	orig        string
	text        string
}

// Index returns the paragraph's position among body paragraphs.
func (p *Paragraph) Index() int { return p.index }

// Text returns the current plain text.
func (p *Paragraph) Text() string { return p.text }

// Style returns the paragraph style id, or "" for the default style.
func (p *Paragraph) Style() string { return p.style }

// Modified reports whether the text differs from the text that was read.
func (p *Paragraph) Modified() bool { return p.text != p.orig }

func (p *Paragraph) selfClosing() bool { return p.end == p.startTagEnd }

func (p *Paragraph) joined() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteString(s.text)
	}
	return b.String()
}

// patch replaces part[start:end] with data.
type patch struct {
	start int64
	end   int64
	data  string
}

// hunk replaces old[a:oldEnd] with middle.
type hunk struct {
	a, oldEnd int
	middle    string
}

// diffHunks returns the disjoint regions of old that must change to obtain
// next, in order. Bounds fall on rune boundaries.
func diffHunks(old, next string) []hunk {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemanticLossless(dmp.DiffMain(old, next, false))

	var (
		out []hunk
		cur *hunk
		pos int
	)
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &hunk{a: pos, oldEnd: pos}
			}
			pos += len(d.Text)
			cur.oldEnd = pos
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &hunk{a: pos, oldEnd: pos}
			}
			cur.middle += d.Text
		}
	}
	flush()
	return out
}

// patches computes the edits that turn the paragraph's original markup into
// markup carrying its current text. Each changed region rewrites only the
// text elements it overlaps, so runs between regions keep their formatting.
func (p *Paragraph) patches(part []byte) []patch {
	if !p.Modified() {
		return nil
	}
	hunks := diffHunks(p.orig, p.text)

	offsets := make([]int, len(p.segs))
	pos := 0
	for i, s := range p.segs {
		offsets[i] = pos
		pos += len(s.text)
	}

	anchors := make([]int, len(hunks))
	for h := range hunks {
		anchors[h] = p.anchor(offsets, hunks[h].a)
	}

	var out []patch
	for i, s := range p.segs {
		lo, hi := offsets[i], offsets[i]+len(s.text)
		if s.kind != segText {
			for _, h := range hunks {
				if lo >= h.a && hi <= h.oldEnd {
					out = append(out, patch{start: s.start, end: s.end})
					break
				}
			}
			continue
		}

		var b strings.Builder
		cur := 0
		for h, hk := range hunks {
			if anchors[h] != i && (hk.a >= hi || hk.oldEnd <= lo) {
				continue
			}
			b.WriteString(s.text[cur:max(cur, clamp(hk.a-lo, 0, len(s.text)))])
			if anchors[h] == i {
				b.WriteString(hk.middle)
			}
			cur = max(cur, clamp(hk.oldEnd-lo, 0, len(s.text)))
		}
		b.WriteString(s.text[cur:])
		if next := b.String(); next != s.text {
			out = append(out, patch{start: s.start, end: s.end, data: renderText(s.prefix, next)})
		}
	}

	for h, hk := range hunks {
		if anchors[h] >= 0 || hk.middle == "" {
			continue
		}
		out = append(out, p.insertion(part, offsets, hk))
	}
	return out
}

// anchor picks the text element that receives the inserted text of a change
// starting at a: the one containing a, else the last one ending at or before
// a, else the first one. It returns -1 when the paragraph has no text element.
func (p *Paragraph) anchor(offsets []int, a int) int {
	for i, s := range p.segs {
		if s.kind == segText && offsets[i] <= a && a < offsets[i]+len(s.text) {
			return i
		}
	}
	anchor := -1
	for i, s := range p.segs {
		if s.kind == segText && offsets[i]+len(s.text) <= a {
			anchor = i
		}
	}
	if anchor >= 0 {
		return anchor
	}
	for i, s := range p.segs {
		if s.kind == segText {
			return i
		}
	}
	return -1
}

// insertion places new text in a paragraph without text elements. Inside a
// run it becomes a <w:t> before the first tab or break at or after the change;
// an empty paragraph gets a new run.
func (p *Paragraph) insertion(part []byte, offsets []int, hk hunk) patch {
	for i, s := range p.segs {
		if offsets[i] >= hk.a {
			return patch{start: s.start, end: s.start, data: renderText(p.prefix, hk.middle)}
		}
	}
	if n := len(p.segs); n > 0 {
		last := p.segs[n-1]
		return patch{start: last.end, end: last.end, data: renderText(p.prefix, hk.middle)}
	}
	run := renderRun(p.prefix, hk.middle)
	if p.selfClosing() {
		open := strings.TrimRight(strings.TrimSuffix(string(part[p.start:p.end]), "/>"), " \t\r\n")
		return patch{start: p.start, end: p.end, data: open + ">" + run + "</" + qualify(p.prefix, "p") + ">"}
	}
	return patch{start: p.closeAt, end: p.closeAt, data: run}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// renderText renders text as the content of a run. Tabs and newlines become
// sibling <w:tab/> and <w:br/> elements, which are valid inside <w:r>.
func renderText(prefix, text string) string {
	t := qualify(prefix, "t")
	if text == "" {
		return "<" + t + "/>"
	}
	var b strings.Builder
	chunk := func(s string) {
		b.WriteString("<" + t + ` xml:space="preserve">`)
		b.WriteString(encoding.EscapeXMLText(s))
		b.WriteString("</" + t + ">")
	}
	last := 0
	for i := 0; i < len(text); i++ {
		var el string
		switch text[i] {
		case '\t':
			el = qualify(prefix, "tab")
		case '\n':
			el = qualify(prefix, "br")
		default:
			continue
		}
		if i > last {
			chunk(text[last:i])
		}
		b.WriteString("<" + el + "/>")
		last = i + 1
	}
	if last < len(text) {
		chunk(text[last:])
	}
	return b.String()
}

func renderRun(prefix, text string) string {
	r := qualify(prefix, "r")
	return "<" + r + ">" + renderText(prefix, text) + "</" + r + ">"
}

// applyPatches splices patches into part. Patches must not overlap; an
// insertion at the start of a replaced range goes first.
func applyPatches(part []byte, patches []patch) []byte {
	if len(patches) == 0 {
		return part
	}
	sort.SliceStable(patches, func(i, j int) bool {
		if patches[i].start != patches[j].start {
			return patches[i].start < patches[j].start
		}
		return patches[i].end < patches[j].end
	})

	out := make([]byte, 0, len(part)+256)
	var last int64
	for _, pt := range patches {
		out = append(out, part[last:pt.start]...)
		out = append(out, pt.data...)
		last = pt.end
	}
	return append(out, part[last:]...)
}
