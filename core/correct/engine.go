package correct

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	cerrors "github.com/FocuswithJustin/docfix/core/errors"
)

// Kind classifies a Record.
type Kind int

const (
	// Changed means the rule altered the paragraph's text.
	Changed Kind = iota
	// NoMatch means the selector matched nothing or no search text was found.
	NoMatch
	// Skipped means the rule's When guard did not hold for an index-selected
	// paragraph.
	Skipped
)

func (k Kind) String() string {
	switch k {
	case Changed:
		return "changed"
	case NoMatch:
		return "no-match"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Record is one entry of the change log. Paragraph is -1 when a predicate
// selector matched nothing.
type Record struct {
	Rule        string
	Paragraph   int
	Kind        Kind
	Description string
	Before      string
	After       string
}

func (r Record) String() string {
	switch {
	case r.Paragraph < 0:
		return fmt.Sprintf("Rule %s: %s", r.Rule, r.Description)
	default:
		return fmt.Sprintf("Paragraph %d: %s", r.Paragraph, r.Description)
	}
}

// Result is the outcome of one pass.
type Result struct {
	RunID     string
	DryRun    bool
	Records   []Record
	Committed []int // paragraphs written back to the document
}

// Changes returns the records that altered text.
func (r *Result) Changes() []Record { return r.filter(Changed) }

// Warnings returns the no-match and skipped records.
func (r *Result) Warnings() []Record {
	return append(r.filter(NoMatch), r.filter(Skipped)...)
}

func (r *Result) filter(k Kind) []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Kind == k {
			out = append(out, rec)
		}
	}
	return out
}

// Engine applies rule sets to documents.
type Engine struct {
	normalize bool
	dryRun    bool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNormalize collapses repeated spaces in every changed paragraph once all
// rules have run, not only after rules that ask for it.
func WithNormalize(on bool) Option {
	return func(e *Engine) { e.normalize = on }
}

// WithDryRun computes the change log without writing to the document.
func WithDryRun(on bool) Option {
	return func(e *Engine) { e.dryRun = on }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine configured by opts.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run applies rules to doc in order and returns the change log.
//
// Index selectors are validated before anything else. Expect is checked when
// its rule is reached, against the text left by the rules before it. An
// out-of-range index, a failed Expect, or an ambiguous unique selector aborts
// the run and the document is left untouched. Otherwise changed paragraphs are written back
// to doc unless the engine is in dry-run mode.
func (e *Engine) Run(doc Document, rules []Rule) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), DryRun: e.dryRun}
	log := e.logger.With("run_id", res.RunID)

	for pos, rule := range rules {
		if idx, ok := rule.Selector.(Index); ok && (int(idx) < 0 || int(idx) >= doc.Len()) {
			return nil, &cerrors.IndexOutOfRangeError{Rule: rule.name(pos), Index: int(idx), Len: doc.Len()}
		}
	}

	snap := takeSnapshot(doc)
	for pos, rule := range rules {
		recs, err := e.apply(snap, pos, rule)
		if err != nil {
			log.Error("correction run aborted", "rule", rule.name(pos), "error", err)
			return nil, err
		}
		for _, rec := range recs {
			switch rec.Kind {
			case Changed:
				log.Debug("rule applied", "rule", rec.Rule, "paragraph", rec.Paragraph)
			default:
				log.Info("rule had no effect", "rule", rec.Rule, "paragraph", rec.Paragraph, "kind", rec.Kind.String())
			}
		}
		res.Records = append(res.Records, recs...)
	}

	if e.normalize {
		e.normalizeChanged(doc, snap, res)
	}
	if e.dryRun {
		return res, nil
	}
	for i := 0; i < doc.Len(); i++ {
		if snap.texts[i] != doc.Text(i) {
			doc.SetText(i, snap.texts[i])
			res.Committed = append(res.Committed, i)
		}
	}
	log.Info("correction run complete", "rules", len(rules), "changes", len(res.Changes()), "paragraphs", len(res.Committed))
	return res, nil
}

// normalizeChanged collapses repeated spaces once per changed paragraph,
// after every rule has run, and keeps the last record's After in step.
func (e *Engine) normalizeChanged(doc Document, snap *snapshot, res *Result) {
	last := map[int]int{}
	for n, rec := range res.Records {
		if rec.Kind == Changed {
			last[rec.Paragraph] = n
		}
	}
	for i := range snap.texts {
		if snap.texts[i] == doc.Text(i) {
			continue
		}
		snap.texts[i] = NormalizeWhitespace(snap.texts[i])
		if n, ok := last[i]; ok {
			res.Records[n].After = snap.texts[i]
		}
	}
}

func (e *Engine) apply(snap *snapshot, pos int, rule Rule) ([]Record, error) {
	name := rule.name(pos)
	indices, err := Select(snap, rule.Selector)
	if err != nil {
		switch se := err.(type) {
		case *cerrors.IndexOutOfRangeError:
			se.Rule = name
		case *cerrors.AmbiguousSelectorError:
			se.Rule = name
		}
		return nil, err
	}
	if len(indices) == 0 {
		return []Record{{
			Rule:        name,
			Paragraph:   -1,
			Kind:        NoMatch,
			Description: fmt.Sprintf("no match: no paragraph %s", strings.TrimPrefix(rule.Selector.String(), "where ")),
		}}, nil
	}

	var recs []Record
	changed := false
	_, indexed := rule.Selector.(Index)
	guarded := 0
	for _, i := range indices {
		before := snap.texts[i]
		if rule.Expect != "" && !strings.Contains(before, rule.Expect) {
			return nil, &cerrors.ExpectationError{Rule: name, Paragraph: i, Expected: rule.Expect}
		}
		if rule.When != "" && !strings.Contains(before, rule.When) {
			// On a predicate selection the guard only narrows the match.
			if !indexed {
				guarded++
				continue
			}
			recs = append(recs, Record{
				Rule:        name,
				Paragraph:   i,
				Kind:        Skipped,
				Description: fmt.Sprintf("skipped: text %q not present", rule.When),
				Before:      before,
				After:       before,
			})
			continue
		}

		after := before
		for _, ed := range rule.Edits {
			after, _ = ApplyRule(after, ed.Search, ed.Replace)
		}
		if after != before && rule.Normalize {
			after = NormalizeWhitespace(after)
		}
		if after == before {
			continue
		}
		snap.texts[i] = after
		changed = true
		recs = append(recs, Record{
			Rule:        name,
			Paragraph:   i,
			Kind:        Changed,
			Description: rule.describe(),
			Before:      before,
			After:       after,
		})
	}

	if !changed && len(recs) == 0 {
		p := -1
		if len(indices) == 1 {
			p = indices[0]
		}
		desc := "no match: search text not found"
		if guarded == len(indices) {
			p = -1
			desc = fmt.Sprintf("no match: no selected paragraph contains %q", rule.When)
		}
		recs = append(recs, Record{
			Rule:        name,
			Paragraph:   p,
			Kind:        NoMatch,
			Description: desc,
		})
	}
	return recs, nil
}
