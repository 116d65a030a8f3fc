package correct

import (
	"fmt"
	"strings"

	cerrors "github.com/FocuswithJustin/docfix/core/errors"
)

// Selector identifies the paragraphs a rule applies to.
type Selector interface {
	fmt.Stringer
	isSelector()
}

// Index selects one paragraph by absolute, zero-based position.
type Index int

func (Index) isSelector() {}

func (i Index) String() string { return fmt.Sprintf("paragraph %d", int(i)) }

// Where selects every paragraph matching a predicate. When Unique is set the
// predicate must match exactly one paragraph.
type Where struct {
	Pred   Predicate
	Unique bool
}

func (Where) isSelector() {}

func (w Where) String() string {
	if w.Unique {
		return "where " + w.Pred.String() + " once"
	}
	return "where " + w.Pred.String()
}

// Predicate tests a paragraph's text and style.
type Predicate interface {
	fmt.Stringer
	Match(text, style string) bool
}

// Contains matches paragraphs containing the literal, case-sensitive substring.
type Contains string

func (c Contains) Match(text, _ string) bool { return strings.Contains(text, string(c)) }
func (c Contains) String() string            { return fmt.Sprintf("contains %q", string(c)) }

// Style matches paragraphs whose style name equals the value.
type Style string

func (s Style) Match(_, style string) bool { return style == string(s) }
func (s Style) String() string             { return fmt.Sprintf("style %q", string(s)) }

// All matches when every predicate matches. An empty All matches everything.
type All []Predicate

func (a All) Match(text, style string) bool {
	for _, p := range a {
		if !p.Match(text, style) {
			return false
		}
	}
	return true
}

func (a All) String() string { return joinPredicates(a, " and ") }

// Any matches when at least one predicate matches.
type Any []Predicate

func (a Any) Match(text, style string) bool {
	for _, p := range a {
		if p.Match(text, style) {
			return true
		}
	}
	return false
}

func (a Any) String() string { return joinPredicates(a, " or ") }

// Not inverts a predicate.
type Not struct{ Pred Predicate }

func (n Not) Match(text, style string) bool { return !n.Pred.Match(text, style) }
func (n Not) String() string                { return "not " + n.Pred.String() }

func joinPredicates(ps []Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
		switch p.(type) {
		case All, Any:
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, sep)
}

// Select resolves a selector against doc. An Index past the end of the
// document returns an IndexOutOfRangeError; a predicate never fails except
// when marked unique and not matching exactly once.
func Select(doc Document, sel Selector) ([]int, error) {
	switch s := sel.(type) {
	case Index:
		if int(s) < 0 || int(s) >= doc.Len() {
			return nil, &cerrors.IndexOutOfRangeError{Index: int(s), Len: doc.Len()}
		}
		return []int{int(s)}, nil
	case Where:
		styled, _ := doc.(StyledDocument)
		var matches []int
		for i := 0; i < doc.Len(); i++ {
			style := ""
			if styled != nil {
				style = styled.Style(i)
			}
			if s.Pred.Match(doc.Text(i), style) {
				matches = append(matches, i)
			}
		}
		if s.Unique && len(matches) != 1 {
			return nil, &cerrors.AmbiguousSelectorError{Matches: matches}
		}
		return matches, nil
	default:
		return nil, cerrors.NewUnsupported("selector", fmt.Sprintf("%T", sel))
	}
}

// overlaps reports whether two selectors could target the same paragraph.
// Only two distinct indices are known to be disjoint.
func overlaps(a, b Selector) bool {
	ai, aok := a.(Index)
	bi, bok := b.(Index)
	if aok && bok {
		return ai == bi
	}
	return true
}
