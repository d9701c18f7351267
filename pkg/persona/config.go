// Package persona loads per-repository persona definitions and matches
// filesystem events against them. A persona pairs a set of path globs with
// an optional set of content triggers: files that match the globs are
// reported, and if triggers are present they gate the report on the file's
// content as well.
package persona

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configRelativePath is the location of the persona configuration file
// within a watched repository.
const configRelativePath = ".sage/valve.yml"

// Config is the raw, unparsed persona configuration for a repository, as
// decoded directly from YAML.
type Config struct {
	Personas map[string]Definition `yaml:"personas"`
}

// Definition is a single persona's configuration, prior to glob/regex
// compilation.
type Definition struct {
	// Filters are path globs (doublestar syntax) that a changed file's
	// repository-relative path must match for the persona to consider it.
	Filters []string `yaml:"filters"`
	// Triggers are regular expressions. If present, at least one must match
	// the changed file's content for the persona to report the change.
	Triggers []string `yaml:"triggers"`
	// Response is a free-form label describing what should happen when this
	// persona matches. Valve does not act on it; it is carried through to the
	// chronicle for downstream consumers.
	Response string `yaml:"response"`
	// Severity is a free-form label, e.g. "HALT_EVERYTHING". Valve does not
	// act on it.
	Severity string `yaml:"severity"`
	// Schedule is reserved for future use. It is parsed and preserved but
	// never consulted.
	Schedule string `yaml:"schedule"`
}

// Load reads and parses the persona configuration for the repository rooted
// at repoPath. A missing configuration file is not an error: it yields a
// Config with no personas, so a registered codebase without a valve.yml is
// simply never matched against.
func Load(repoPath string) (*Config, error) {
	path := filepath.Join(repoPath, configRelativePath)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Personas: map[string]Definition{}}, nil
		}
		return nil, fmt.Errorf("unable to read persona config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse persona config: %w", err)
	}
	if cfg.Personas == nil {
		cfg.Personas = map[string]Definition{}
	}

	return &cfg, nil
}
