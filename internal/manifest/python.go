package manifest

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// requirementName matches the distribution name at the start of a PEP 508
// requirement such as "flask[async]>=2.3 ; python_version>'3.8'".
var requirementName = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)`)

// RequirementName returns the package name of a single requirement specifier.
func RequirementName(spec string) string {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, "#"); i >= 0 {
		spec = spec[:i]
	}
	m := requirementName.FindStringSubmatch(spec)
	if m == nil {
		return ""
	}
	return m[1]
}

type requirementsParser struct{}

func (requirementsParser) Format() string { return "requirements" }

func (requirementsParser) Parse(content []byte) ([]string, error) {
	var out names
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), MaxManifestRead)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// Options (-r, -e, --index-url) and comments carry no names.
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Direct URL references only name a package in the "name @ url" form.
		if strings.Contains(line, "://") {
			if i := strings.Index(line, " @ "); i > 0 {
				out.add(RequirementName(line[:i]))
			}
			continue
		}
		out.add(RequirementName(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out.list, nil
}

var (
	installRequires = regexp.MustCompile(`(?s)install_requires\s*=\s*\[(.*?)\]`)
	quoted          = regexp.MustCompile(`["']([^"']+)["']`)
)

// setupPyParser reads the literal install_requires list; computed lists are
// not evaluated.
type setupPyParser struct{}

func (setupPyParser) Format() string { return "setup.py" }

func (setupPyParser) Parse(content []byte) ([]string, error) {
	var out names
	for _, block := range installRequires.FindAllSubmatch(content, -1) {
		for _, q := range quoted.FindAllSubmatch(block[1], -1) {
			out.add(RequirementName(string(q[1])))
		}
	}
	return out.list, nil
}

type pyprojectParser struct{}

func (pyprojectParser) Format() string { return "pyproject.toml" }

func (pyprojectParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Project struct {
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies    map[string]any `toml:"dependencies"`
				DevDependencies map[string]any `toml:"dev-dependencies"`
				Group           map[string]struct {
					Dependencies map[string]any `toml:"dependencies"`
				} `toml:"group"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, spec := range doc.Project.Dependencies {
		out.add(RequirementName(spec))
	}
	for _, extra := range sortedKeys(doc.Project.OptionalDependencies) {
		for _, spec := range doc.Project.OptionalDependencies[extra] {
			out.add(RequirementName(spec))
		}
	}
	addPoetry := func(m map[string]any) {
		for _, name := range sortedKeys(m) {
			if strings.EqualFold(name, "python") {
				continue
			}
			out.add(name)
		}
	}
	addPoetry(doc.Tool.Poetry.Dependencies)
	addPoetry(doc.Tool.Poetry.DevDependencies)
	for _, g := range sortedKeys(doc.Tool.Poetry.Group) {
		addPoetry(doc.Tool.Poetry.Group[g].Dependencies)
	}
	return out.list, nil
}

type pipfileParser struct{}

func (pipfileParser) Format() string { return "Pipfile" }

func (pipfileParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Packages    map[string]any `toml:"packages"`
		DevPackages map[string]any `toml:"dev-packages"`
	}
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, name := range sortedKeys(doc.Packages) {
		out.add(name)
	}
	for _, name := range sortedKeys(doc.DevPackages) {
		out.add(name)
	}
	return out.list, nil
}
