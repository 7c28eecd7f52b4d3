// Package manifest extracts declared dependency names from package manager
// manifests. Each supported format has its own Parser; unknown files simply
// have no parser.
package manifest

import (
	"fmt"
	"path"
	"strings"
)

// MaxManifestRead caps how much of a manifest is handed to a parser.
const MaxManifestRead = 256 * 1024

// Parser extracts dependency names from the content of one manifest format.
type Parser interface {
	// Format names the manifest format, e.g. "requirements" or "package.json".
	Format() string
	// Parse returns dependency names in declaration order without duplicates.
	Parse(content []byte) ([]string, error)
}

// ParseSkip records a manifest whose dependencies were left out because it
// could not be read or parsed. It never aborts summarization.
type ParseSkip struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
	Err    string `json:"error" yaml:"error"`
}

func (s ParseSkip) Error() string {
	return fmt.Sprintf("manifest %s (%s): %s", s.Path, s.Format, s.Err)
}

// parsers maps lowercase base file names to their parser.
var parsers = map[string]Parser{
	"requirements.txt": requirementsParser{},
	"setup.py":         setupPyParser{},
	"pyproject.toml":   pyprojectParser{},
	"pipfile":          pipfileParser{},
	"environment.yml":  condaParser{},
	"environment.yaml": condaParser{},
	"package.json":     packageJSONParser{},
	"composer.json":    composerParser{},
	"go.mod":           goModParser{},
	"cargo.toml":       cargoParser{},
	"pom.xml":          pomParser{},
	"build.gradle":     gradleParser{},
	"build.gradle.kts": gradleParser{},
	"gemfile":          gemfileParser{},
	"pubspec.yaml":     pubspecParser{},
}

// Lookup returns the parser for the manifest at p, matched on its base name.
// requirements-*.txt variants share the requirements parser.
func Lookup(p string) (Parser, bool) {
	base := strings.ToLower(path.Base(p))
	if ps, ok := parsers[base]; ok {
		return ps, true
	}
	if strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt") {
		return requirementsParser{}, true
	}
	return nil, false
}

// names accumulates dependency names in first-seen order.
type names struct {
	seen map[string]struct{}
	list []string
}

func (n *names) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if n.seen == nil {
		n.seen = map[string]struct{}{}
	}
	if _, ok := n.seen[name]; ok {
		return
	}
	n.seen[name] = struct{}{}
	n.list = append(n.list, name)
}
