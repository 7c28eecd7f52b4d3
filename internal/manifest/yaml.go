package manifest

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// pubspecParser keeps the declaration order of the dependency maps.
type pubspecParser struct{}

func (pubspecParser) Format() string { return "pubspec.yaml" }

func (pubspecParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Dependencies    yaml.Node `yaml:"dependencies"`
		DevDependencies yaml.Node `yaml:"dev_dependencies"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, n := range []*yaml.Node{&doc.Dependencies, &doc.DevDependencies} {
		if n.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			out.add(n.Content[i].Value)
		}
	}
	return out.list, nil
}

// condaParser handles environment.yml: plain conda specs plus a nested pip list.
type condaParser struct{}

func (condaParser) Format() string { return "environment.yml" }

func (condaParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Dependencies []any `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, dep := range doc.Dependencies {
		switch v := dep.(type) {
		case string:
			out.add(condaName(v))
		case map[string]any:
			pip, _ := v["pip"].([]any)
			for _, p := range pip {
				if s, ok := p.(string); ok {
					out.add(RequirementName(s))
				}
			}
		}
	}
	return out.list, nil
}

// condaName strips a channel prefix and version constraint: "conda-forge::numpy>=1.2" -> "numpy".
func condaName(spec string) string {
	spec = strings.TrimSpace(spec)
	if i := strings.LastIndex(spec, "::"); i >= 0 {
		spec = spec[i+2:]
	}
	if i := strings.IndexAny(spec, "=<>! "); i >= 0 {
		spec = spec[:i]
	}
	return spec
}
