package correct

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FindingKind classifies a lint finding.
type FindingKind string

const (
	// FindingChained: a later edit searches for text an earlier edit introduces.
	FindingChained FindingKind = "chained"
	// FindingNotIdempotent: an edit's replacement still contains its search text.
	FindingNotIdempotent FindingKind = "not-idempotent"
	// FindingEmptySearch: an edit can never match.
	FindingEmptySearch FindingKind = "empty-search"
	// FindingMojibake: text looks like UTF-8 decoded as Windows-1252.
	FindingMojibake FindingKind = "mojibake"
)

// Finding is one lint result.
type Finding struct {
	Rule    string
	Kind    FindingKind
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("rule %s: %s: %s", f.Rule, f.Kind, f.Message)
}

// Lint inspects a rule set without a document.
func Lint(rules []Rule) []Finding {
	var out []Finding
	for pos, rule := range rules {
		name := rule.name(pos)
		for k, ed := range rule.Edits {
			if ed.Search == "" {
				out = append(out, Finding{Rule: name, Kind: FindingEmptySearch, Message: fmt.Sprintf("edit %d has empty search text", k+1)})
				continue
			}
			if strings.Contains(ed.Replace, ed.Search) {
				out = append(out, Finding{
					Rule:    name,
					Kind:    FindingNotIdempotent,
					Message: fmt.Sprintf("replacement %q contains its own search text %q; running twice changes text again", ed.Replace, ed.Search),
				})
			}
			for _, s := range []string{ed.Search, ed.Replace} {
				if LooksMojibake(s) {
					out = append(out, Finding{Rule: name, Kind: FindingMojibake, Message: fmt.Sprintf("%q looks mis-encoded", s)})
				}
			}
			out = append(out, chained(rules, pos, k, name)...)
		}
	}
	return out
}

// chained reports earlier edits, on possibly overlapping targets, whose
// replacement introduces the search text of edit k of rule pos.
func chained(rules []Rule, pos, k int, name string) []Finding {
	var out []Finding
	search := rules[pos].Edits[k].Search
	for p := 0; p <= pos; p++ {
		if !overlaps(rules[p].Selector, rules[pos].Selector) {
			continue
		}
		limit := len(rules[p].Edits)
		if p == pos {
			limit = k
		}
		for j := 0; j < limit; j++ {
			prev := rules[p].Edits[j]
			if prev.Search == "" || strings.Contains(prev.Search, search) || !strings.Contains(prev.Replace, search) {
				continue
			}
			out = append(out, Finding{
				Rule:    name,
				Kind:    FindingChained,
				Message: fmt.Sprintf("searches for %q, which rule %s introduces via %q", search, rules[p].name(p), prev.Replace),
			})
		}
	}
	return out
}

// LooksMojibake reports whether s reads as valid UTF-8 once its characters
// are encoded back to Windows-1252, which is what a UTF-8 string decoded as
// Windows-1252 looks like.
func LooksMojibake(s string) bool {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return false
	}
	b, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return false
	}
	return b != s && utf8.ValidString(b) && strings.ContainsFunc(b, func(r rune) bool { return r >= utf8.RuneSelf })
}
