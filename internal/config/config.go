// Package config supplies flag defaults from YAML configuration files.
//
// A configuration file maps flag names to values. Top-level keys apply to
// every command; a key named after a command holds values for the flags
// that command declares:
//
//	log-level: info
//	journal: ~/.local/share/docfix/journal.db
//	apply:
//	  normalize: true
//	  rules: [fixes.rules]
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// FileName is the per-directory configuration file.
const FileName = ".docfix.yaml"

// Paths returns the configuration files consulted when --config is not
// given, in increasing priority order. kong applies the first one found.
func Paths() []string {
	paths := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "docfix", "config.yaml"))
	}
	return paths
}

// DefaultJournal is the journal location used when none is configured.
func DefaultJournal() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "docfix", "journal.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "docfix", "journal.db")
	}
	return "docfix-journal.db"
}

// Values is a decoded configuration file.
type Values map[string]any

// Decode reads YAML configuration.
func Decode(r io.Reader) (Values, error) {
	v := Values{}
	if err := yaml.NewDecoder(r).Decode(&v); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: %w", err)
	}
	return v, nil
}

// Lookup finds the value for a flag under the given command path. The most
// specific command section wins; top-level keys are the fallback.
func (v Values) Lookup(commands []string, flag string) (any, bool) {
	for i := len(commands); i >= 0; i-- {
		section, ok := v.section(commands[:i])
		if !ok {
			continue
		}
		for _, key := range []string{flag, strings.ReplaceAll(flag, "-", "_")} {
			if val, found := section[key]; found {
				if _, isSection := asMap(val); isSection {
					continue
				}
				return val, true
			}
		}
	}
	return nil, false
}

func (v Values) section(path []string) (map[string]any, bool) {
	section := map[string]any(v)
	for _, c := range path {
		next, ok := asMap(section[c])
		if !ok {
			return nil, false
		}
		section = next
	}
	return section, true
}

// asMap accepts the map types yaml.v3 produces for nested mappings: the
// outer map's own type when decoding into Values, map[string]any otherwise.
func asMap(val any) (map[string]any, bool) {
	switch m := val.(type) {
	case Values:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// Loader is a kong.ConfigurationLoader for YAML files.
func Loader(r io.Reader) (kong.Resolver, error) {
	values, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return kong.ResolverFunc(func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		val, ok := values.Lookup(commandPath(parent), flag.Name)
		if !ok {
			return nil, nil
		}
		return flagValue(val), nil
	}), nil
}

func commandPath(p *kong.Path) []string {
	var out []string
	for n := p.Node(); n != nil && n.Type == kong.CommandNode; n = n.Parent {
		out = append([]string{n.Name}, out...)
	}
	return out
}

// flagValue renders a YAML scalar or sequence as the string form kong
// would have received on the command line.
func flagValue(val any) any {
	switch v := val.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case string, nil:
		return v
	default:
		return fmt.Sprint(v)
	}
}
