package manifest

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

type goModParser struct{}

func (goModParser) Format() string { return "go.mod" }

func (goModParser) Parse(content []byte) ([]string, error) {
	f, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil, err
	}
	var out names
	for _, r := range f.Require {
		if r == nil {
			continue
		}
		out.add(r.Mod.Path)
	}
	return out.list, nil
}

type cargoParser struct{}

func (cargoParser) Format() string { return "Cargo.toml" }

func (cargoParser) Parse(content []byte) ([]string, error) {
	var doc struct {
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
		Workspace         struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"workspace"`
	}
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, section := range []map[string]any{
		doc.Dependencies, doc.DevDependencies, doc.BuildDependencies, doc.Workspace.Dependencies,
	} {
		for _, name := range sortedKeys(section) {
			out.add(name)
		}
	}
	return out.list, nil
}

// pomParser reports Maven coordinates as groupId:artifactId.
type pomParser struct{}

func (pomParser) Format() string { return "pom.xml" }

func (pomParser) Parse(content []byte) ([]string, error) {
	type dependency struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	}
	var doc struct {
		XMLName      xml.Name     `xml:"project"`
		Dependencies []dependency `xml:"dependencies>dependency"`
	}
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	var out names
	for _, d := range doc.Dependencies {
		switch {
		case d.GroupID != "" && d.ArtifactID != "":
			out.add(d.GroupID + ":" + d.ArtifactID)
		default:
			out.add(d.ArtifactID)
		}
	}
	return out.list, nil
}

var gradleDep = regexp.MustCompile(`^\s*(?:implementation|api|compileOnly|runtimeOnly|testImplementation|testRuntimeOnly|kapt|annotationProcessor)\s*\(?\s*["']([^"':]+):([^"':]+)`)

type gradleParser struct{}

func (gradleParser) Format() string { return "build.gradle" }

func (gradleParser) Parse(content []byte) ([]string, error) {
	var out names
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), MaxManifestRead)
	for sc.Scan() {
		if m := gradleDep.FindStringSubmatch(sc.Text()); m != nil {
			out.add(m[1] + ":" + m[2])
		}
	}
	return out.list, sc.Err()
}

var gemLine = regexp.MustCompile(`^\s*gem\s+["']([^"']+)["']`)

type gemfileParser struct{}

func (gemfileParser) Format() string { return "Gemfile" }

func (gemfileParser) Parse(content []byte) ([]string, error) {
	var out names
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), MaxManifestRead)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if m := gemLine.FindStringSubmatch(line); m != nil {
			out.add(m[1])
		}
	}
	return out.list, sc.Err()
}
