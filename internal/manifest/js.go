package manifest

import (
	"encoding/json"
	"sort"
	"strings"
)

type packageJSONParser struct{}

func (packageJSONParser) Format() string { return "package.json" }

func (packageJSONParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Dependencies         map[string]string `json:"dependencies"`
		DevDependencies      map[string]string `json:"devDependencies"`
		PeerDependencies     map[string]string `json:"peerDependencies"`
		OptionalDependencies map[string]string `json:"optionalDependencies"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, section := range []map[string]string{
		doc.Dependencies, doc.DevDependencies, doc.PeerDependencies, doc.OptionalDependencies,
	} {
		for _, name := range sortedKeys(section) {
			out.add(name)
		}
	}
	return out.list, nil
}

// composerParser skips platform requirements (php, ext-*, lib-*).
type composerParser struct{}

func (composerParser) Format() string { return "composer.json" }

func (composerParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, section := range []map[string]string{doc.Require, doc.RequireDev} {
		for _, name := range sortedKeys(section) {
			if name == "php" || strings.HasPrefix(name, "ext-") || strings.HasPrefix(name, "lib-") {
				continue
			}
			out.add(name)
		}
	}
	return out.list, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
