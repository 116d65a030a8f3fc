// Package rules loads correction rule sets from .rules and YAML files.
package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/docfix/core/correct"
	cerrors "github.com/FocuswithJustin/docfix/core/errors"
)

// Format names a rule file syntax.
type Format string

const (
	// FormatDSL is the .rules syntax.
	FormatDSL Format = "rules"
	// FormatYAML is the YAML syntax.
	FormatYAML Format = "YAML"
)

// readFile is injectable for testing.
var readFile = os.ReadFile

// DetectFormat picks the syntax from the file extension. Anything that is not
// .yaml or .yml is read as .rules.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatDSL
	}
}

// Load reads the rule file at path.
func Load(path string) ([]correct.Rule, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, cerrors.NewIO("read", path, err)
	}
	return ParseFormat(DetectFormat(path), path, data)
}

// LoadAll reads several rule files and concatenates their rules in argument
// order.
func LoadAll(paths []string) ([]correct.Rule, error) {
	var all []correct.Rule
	for _, p := range paths {
		rs, err := Load(p)
		if err != nil {
			return nil, err
		}
		all = append(all, rs...)
	}
	return all, nil
}

// ParseFormat parses data in the given syntax. name is used in error
// positions.
func ParseFormat(format Format, name string, data []byte) ([]correct.Rule, error) {
	switch format {
	case FormatYAML:
		return ParseYAML(name, data)
	case FormatDSL:
		return Parse(name, data)
	default:
		return nil, cerrors.NewUnsupported("rule format", string(format))
	}
}

// Parse parses .rules source.
func Parse(name string, data []byte) ([]correct.Rule, error) {
	file, err := rulesParser.ParseBytes(name, data)
	if err != nil {
		return nil, dslError(name, err)
	}

	out := make([]correct.Rule, 0, len(file.Rules))
	for _, decl := range file.Rules {
		r, err := decl.rule(name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func dslError(name string, err error) error {
	pe := &cerrors.ParseError{Format: string(FormatDSL), Path: name, Message: err.Error()}
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		pe.Line, pe.Column = pos.Line, pos.Column
		pe.Message = perr.Message()
	}
	return pe
}

func (d *ruleDecl) rule(name string) (correct.Rule, error) {
	r := correct.Rule{}
	if d.Label != nil {
		r.Label = *d.Label
	}

	if d.At != nil {
		if d.Once {
			return r, posError(name, d.Pos, "once only applies to where selectors")
		}
		r.Selector = correct.Index(*d.At)
	} else {
		r.Selector = correct.Where{Pred: d.Where.predicate(), Unique: d.Once}
	}

	for _, s := range d.Body {
		switch {
		case s.Replace != nil:
			r.Edits = append(r.Edits, correct.Edit{Search: s.Replace.Search, Replace: s.Replace.Replace})
		case s.Delete != nil:
			r.Edits = append(r.Edits, correct.Edit{Search: *s.Delete})
		case s.Expect != nil:
			if r.Expect != "" {
				return r, posError(name, s.Pos, "duplicate expect")
			}
			r.Expect = *s.Expect
		case s.When != nil:
			if r.When != "" {
				return r, posError(name, s.Pos, "duplicate when")
			}
			r.When = *s.When
		case s.Describe != nil:
			r.Description = *s.Describe
		case s.Normalize:
			r.Normalize = true
		}
	}

	if len(r.Edits) == 0 {
		return r, posError(name, d.Pos, "rule has no replace or delete statements")
	}
	return r, nil
}

func posError(name string, pos lexer.Position, message string) error {
	return &cerrors.ParseError{
		Format:  string(FormatDSL),
		Path:    name,
		Line:    pos.Line,
		Column:  pos.Column,
		Message: message,
	}
}

func (o *orExpr) predicate() correct.Predicate {
	if len(o.Terms) == 1 {
		return o.Terms[0].predicate()
	}
	anyOf := make(correct.Any, len(o.Terms))
	for i, t := range o.Terms {
		anyOf[i] = t.predicate()
	}
	return anyOf
}

func (a *andExpr) predicate() correct.Predicate {
	if len(a.Factors) == 1 {
		return a.Factors[0].predicate()
	}
	all := make(correct.All, len(a.Factors))
	for i, f := range a.Factors {
		all[i] = f.predicate()
	}
	return all
}

func (f *factor) predicate() correct.Predicate {
	switch {
	case f.Not != nil:
		return correct.Not{Pred: f.Not.predicate()}
	case f.Contains != nil:
		return correct.Contains(*f.Contains)
	case f.Style != nil:
		return correct.Style(*f.Style)
	default:
		return f.Group.predicate()
	}
}
