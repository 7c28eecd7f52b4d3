package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, file, content string) []string {
	t.Helper()
	p, ok := Lookup(file)
	require.True(t, ok, "no parser for %s", file)
	got, err := p.Parse([]byte(content))
	require.NoError(t, err)
	return got
}

func TestLookup(t *testing.T) {
	for _, f := range []string{"requirements.txt", "sub/requirements-dev.txt", "web/package.json", "Cargo.toml", "go.mod", "Gemfile", "pom.xml"} {
		_, ok := Lookup(f)
		assert.True(t, ok, f)
	}
	for _, f := range []string{"README.md", "main.go", "requirements.md", "package.json.bak"} {
		_, ok := Lookup(f)
		assert.False(t, ok, f)
	}
}

func TestRequirements(t *testing.T) {
	content := `# core
flask
pytest

-r base.txt
--index-url https://example.org/simple
requests==2.28.0
Django>=4.2,<5 ; python_version >= "3.10"
uvicorn[standard]~=0.22
mypkg @ https://example.org/mypkg.tar.gz
https://example.org/anonymous.whl
flask==2.3.0
`
	got := parse(t, "requirements.txt", content)
	assert.Equal(t, []string{"flask", "pytest", "requests", "Django", "uvicorn", "mypkg"}, got)
}

func TestRequirementsFlaskPytest(t *testing.T) {
	got := parse(t, "requirements.txt", "flask\npytest\n\n# testing only\n\n\n\n\n\n")
	assert.Equal(t, []string{"flask", "pytest"}, got)
}

func TestSetupPy(t *testing.T) {
	content := `from setuptools import setup
setup(
    name="demo",
    install_requires=[
        "click>=8",
        'rich',
    ],
)`
	assert.Equal(t, []string{"click", "rich"}, parse(t, "setup.py", content))
}

func TestPyproject(t *testing.T) {
	content := `
[project]
name = "demo"
dependencies = ["httpx>=0.24", "pydantic"]

[project.optional-dependencies]
test = ["pytest"]

[tool.poetry.dependencies]
python = "^3.11"
fastapi = "^0.100"
`
	assert.Equal(t, []string{"httpx", "pydantic", "pytest", "fastapi"}, parse(t, "pyproject.toml", content))
}

func TestPipfile(t *testing.T) {
	content := `
[packages]
requests = "*"
flask = {version = "*"}

[dev-packages]
black = "*"
`
	assert.Equal(t, []string{"flask", "requests", "black"}, parse(t, "Pipfile", content))
}

func TestPackageJSON(t *testing.T) {
	content := `{
  "name": "web",
  "dependencies": {"react": "^18", "axios": "^1"},
  "devDependencies": {"vitest": "^1", "react": "^18"}
}`
	assert.Equal(t, []string{"axios", "react", "vitest"}, parse(t, "package.json", content))
}

func TestComposer(t *testing.T) {
	content := `{"require": {"php": ">=8.1", "ext-json": "*", "laravel/framework": "^10"}, "require-dev": {"phpunit/phpunit": "^10"}}`
	assert.Equal(t, []string{"laravel/framework", "phpunit/phpunit"}, parse(t, "composer.json", content))
}

func TestGoMod(t *testing.T) {
	content := `module example.com/demo

go 1.22

require (
	github.com/spf13/cobra v1.8.0
	go.uber.org/zap v1.27.0 // indirect
)
`
	assert.Equal(t, []string{"github.com/spf13/cobra", "go.uber.org/zap"}, parse(t, "go.mod", content))
}

func TestCargo(t *testing.T) {
	content := `
[package]
name = "demo"

[dependencies]
serde = { version = "1", features = ["derive"] }
tokio = "1"

[dev-dependencies]
criterion = "0.5"
`
	assert.Equal(t, []string{"serde", "tokio", "criterion"}, parse(t, "Cargo.toml", content))
}

func TestPom(t *testing.T) {
	content := `<?xml version="1.0"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencies>
    <dependency><groupId>junit</groupId><artifactId>junit</artifactId></dependency>
    <dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId></dependency>
  </dependencies>
</project>`
	assert.Equal(t, []string{"junit:junit", "org.slf4j:slf4j-api"}, parse(t, "pom.xml", content))
}

func TestGradle(t *testing.T) {
	content := `dependencies {
    implementation 'com.google.guava:guava:32.0.0-jre'
    testImplementation("org.junit.jupiter:junit-jupiter:5.10.0")
}`
	assert.Equal(t, []string{"com.google.guava:guava", "org.junit.jupiter:junit-jupiter"}, parse(t, "build.gradle", content))
}

func TestGemfile(t *testing.T) {
	content := "source 'https://rubygems.org'\ngem 'rails', '~> 7.0'\n# gem 'old'\ngem \"puma\"\n"
	assert.Equal(t, []string{"rails", "puma"}, parse(t, "Gemfile", content))
}

func TestPubspec(t *testing.T) {
	content := `name: app
dependencies:
  http: ^1.0.0
  flutter:
    sdk: flutter
dev_dependencies:
  lints: ^2.0.0
`
	assert.Equal(t, []string{"http", "flutter", "lints"}, parse(t, "pubspec.yaml", content))
}

func TestCondaEnvironment(t *testing.T) {
	content := `name: ml
dependencies:
  - python=3.11
  - conda-forge::numpy>=1.26
  - pip:
    - torch==2.1
`
	assert.Equal(t, []string{"python", "numpy", "torch"}, parse(t, "environment.yml", content))
}

func TestMalformedManifestsError(t *testing.T) {
	for file, content := range map[string]string{
		"package.json":   "{not json",
		"Cargo.toml":     "[dependencies\nserde=",
		"pubspec.yaml":   "dependencies: [unclosed",
		"pom.xml":        "<project><dependencies>",
		"pyproject.toml": "= broken",
	} {
		p, ok := Lookup(file)
		require.True(t, ok)
		_, err := p.Parse([]byte(content))
		assert.Error(t, err, file)
	}
}

func TestParseSkipError(t *testing.T) {
	s := ParseSkip{Path: "web/package.json", Format: "package.json", Err: "unexpected end of JSON input"}
	assert.Contains(t, s.Error(), "web/package.json")
}
