package correct

import (
	"fmt"
	"regexp"
	"strings"
)

// Edit is one literal substitution.
type Edit struct {
	Search  string `yaml:"search" json:"search"`
	Replace string `yaml:"replace" json:"replace"`
}

// Rule applies its edits, in order, to every paragraph its selector picks.
//
// When gates the rule: a selected paragraph that does not contain When is
// skipped. Expect asserts: a selected paragraph that does not contain Expect
// aborts the whole run. Normalize collapses repeated spaces once all edits of
// the rule have been applied to a paragraph.
type Rule struct {
	Label       string
	Description string
	Selector    Selector
	Edits       []Edit
	When        string
	Expect      string
	Normalize   bool
}

// NewRule builds the single (selector, search, replace) form of a rule.
func NewRule(sel Selector, search, replace string) Rule {
	return Rule{Selector: sel, Edits: []Edit{{Search: search, Replace: replace}}}
}

// name returns the label used in records and errors.
func (r Rule) name(pos int) string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("#%d", pos+1)
}

func (r Rule) describe() string {
	if r.Description != "" {
		return r.Description
	}
	parts := make([]string, 0, len(r.Edits))
	for _, e := range r.Edits {
		if e.Replace == "" {
			parts = append(parts, fmt.Sprintf("removed %q", e.Search))
			continue
		}
		parts = append(parts, fmt.Sprintf("%q -> %q", e.Search, e.Replace))
	}
	return strings.Join(parts, "; ")
}

// ApplyRule replaces every non-overlapping occurrence of search in text,
// scanning left to right. Matching is literal and case-sensitive. An empty
// search never matches.
func ApplyRule(text, search, replace string) (string, bool) {
	if search == "" {
		return text, false
	}
	out := strings.ReplaceAll(text, search, replace)
	return out, out != text
}

var repeatedSpaces = regexp.MustCompile(` {2,}`)

// NormalizeWhitespace collapses runs of spaces left behind by deletions.
func NormalizeWhitespace(text string) string {
	return repeatedSpaces.ReplaceAllString(text, " ")
}
