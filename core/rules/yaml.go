package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/docfix/core/correct"
	cerrors "github.com/FocuswithJustin/docfix/core/errors"
)

// yamlFile is the YAML form of a rule set:
//
//	rules:
//	  - label: pg19
//	    paragraph: 19
//	    expect: as a sibling
//	    search: as a sibling
//	    replace: as a parent
//	  - where:
//	      all:
//	        - contains: Ms. Caughman
//	        - contains: her son
//	    edits:
//	      - {search: her son, replace: her daughter}
type yamlFile struct {
	Rules []yaml.Node `yaml:"rules"`
}

type yamlRule struct {
	Label       string         `yaml:"label"`
	Description string         `yaml:"description"`
	Paragraph   *int           `yaml:"paragraph"`
	Where       *yamlPredicate `yaml:"where"`
	Once        bool           `yaml:"once"`
	Search      string         `yaml:"search"`
	Replace     string         `yaml:"replace"`
	Edits       []correct.Edit `yaml:"edits"`
	Expect      string         `yaml:"expect"`
	When        string         `yaml:"when"`
	Normalize   bool           `yaml:"normalize"`
}

type yamlPredicate struct {
	Contains *string         `yaml:"contains"`
	Style    *string         `yaml:"style"`
	All      []yamlPredicate `yaml:"all"`
	Any      []yamlPredicate `yaml:"any"`
	Not      *yamlPredicate  `yaml:"not"`
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// ParseYAML parses a YAML rule set.
func ParseYAML(name string, data []byte) ([]correct.Rule, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		pe := &cerrors.ParseError{Format: string(FormatYAML), Path: name, Message: err.Error(), Err: err}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
			pe.Column = 1
		}
		return nil, pe
	}

	out := make([]correct.Rule, 0, len(file.Rules))
	for i := range file.Rules {
		node := &file.Rules[i]
		var yr yamlRule
		if err := node.Decode(&yr); err != nil {
			return nil, yamlError(name, node, err.Error())
		}
		r, err := yr.rule()
		if err != nil {
			return nil, yamlError(name, node, err.Error())
		}
		out = append(out, r)
	}
	return out, nil
}

func yamlError(name string, node *yaml.Node, message string) error {
	return &cerrors.ParseError{
		Format:  string(FormatYAML),
		Path:    name,
		Line:    node.Line,
		Column:  node.Column,
		Message: message,
	}
}

func (yr yamlRule) rule() (correct.Rule, error) {
	r := correct.Rule{
		Label:       yr.Label,
		Description: yr.Description,
		Expect:      yr.Expect,
		When:        yr.When,
		Normalize:   yr.Normalize,
	}

	switch {
	case yr.Paragraph != nil && yr.Where != nil:
		return r, fmt.Errorf("rule sets both paragraph and where")
	case yr.Paragraph != nil:
		if yr.Once {
			return r, fmt.Errorf("once only applies to where selectors")
		}
		r.Selector = correct.Index(*yr.Paragraph)
	case yr.Where != nil:
		pred, err := yr.Where.predicate()
		if err != nil {
			return r, err
		}
		r.Selector = correct.Where{Pred: pred, Unique: yr.Once}
	default:
		return r, fmt.Errorf("rule needs paragraph or where")
	}

	if yr.Search != "" {
		r.Edits = append(r.Edits, correct.Edit{Search: yr.Search, Replace: yr.Replace})
	}
	r.Edits = append(r.Edits, yr.Edits...)
	if len(r.Edits) == 0 {
		return r, fmt.Errorf("rule has no search or edits")
	}
	return r, nil
}

func (p *yamlPredicate) predicate() (correct.Predicate, error) {
	set := 0
	var out correct.Predicate
	if p.Contains != nil {
		set++
		out = correct.Contains(*p.Contains)
	}
	if p.Style != nil {
		set++
		out = correct.Style(*p.Style)
	}
	if p.All != nil {
		set++
		all := make(correct.All, len(p.All))
		for i := range p.All {
			sub, err := p.All[i].predicate()
			if err != nil {
				return nil, err
			}
			all[i] = sub
		}
		out = all
	}
	if p.Any != nil {
		set++
		anyOf := make(correct.Any, len(p.Any))
		for i := range p.Any {
			sub, err := p.Any[i].predicate()
			if err != nil {
				return nil, err
			}
			anyOf[i] = sub
		}
		out = anyOf
	}
	if p.Not != nil {
		set++
		sub, err := p.Not.predicate()
		if err != nil {
			return nil, err
		}
		out = correct.Not{Pred: sub}
	}
	if set != 1 {
		return nil, fmt.Errorf("predicate needs exactly one of contains, style, all, any, not")
	}
	return out, nil
}
