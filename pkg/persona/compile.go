package persona

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// Compiled is a persona with its globs validated and its triggers compiled
// into regular expressions, ready for repeated matching against file
// change events.
type Compiled struct {
	// Name is the persona's name, taken from its key in the configuration
	// map.
	Name string
	// Globs are the persona's raw filter patterns, validated at compile
	// time (doublestar.Match reports malformed patterns at match time, so we
	// validate eagerly here by doing a trial match against the path ".").
	Globs []string
	// Triggers are the persona's compiled content regular expressions.
	Triggers []*regexp.Regexp
	// Response is carried through unmodified from the definition.
	Response string
	// Severity is carried through unmodified from the definition.
	Severity string
}

// Compile validates and compiles every persona in cfg, returning an error
// that names the offending persona and pattern if any glob or trigger
// fails to compile.
func Compile(cfg *Config) ([]*Compiled, error) {
	compiled := make([]*Compiled, 0, len(cfg.Personas))

	for name, def := range cfg.Personas {
		for _, g := range def.Filters {
			if _, err := doublestar.Match(g, "."); err != nil {
				return nil, fmt.Errorf("persona %q: invalid filter %q: %w", name, g, err)
			}
		}

		triggers := make([]*regexp.Regexp, 0, len(def.Triggers))
		for _, t := range def.Triggers {
			re, err := regexp.Compile(t)
			if err != nil {
				return nil, fmt.Errorf("persona %q: invalid trigger %q: %w", name, t, err)
			}
			triggers = append(triggers, re)
		}

		compiled = append(compiled, &Compiled{
			Name:     name,
			Globs:    def.Filters,
			Triggers: triggers,
			Response: def.Response,
			Severity: def.Severity,
		})
	}

	return compiled, nil
}

// matchesGlobs returns true if rel matches any of the persona's filters, or
// if the persona has no filters at all (an unfiltered persona matches every
// path).
func (c *Compiled) matchesGlobs(rel string) bool {
	if len(c.Globs) == 0 {
		return true
	}
	for _, g := range c.Globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// matchesTrigger returns true if content matches any of the persona's
// triggers.
func (c *Compiled) matchesTrigger(content string) bool {
	for _, re := range c.Triggers {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}
