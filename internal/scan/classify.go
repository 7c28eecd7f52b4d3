package scan

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Language is the detected language of a file, by extension or well-known name.
type Language string

const (
	LangUnknown    Language = "unknown"
	LangGo         Language = "Go"
	LangPython     Language = "Python"
	LangJavaScript Language = "JavaScript"
	LangTypeScript Language = "TypeScript"
	LangJava       Language = "Java"
	LangKotlin     Language = "Kotlin"
	LangScala      Language = "Scala"
	LangRust       Language = "Rust"
	LangC          Language = "C"
	LangCPP        Language = "C++"
	LangCSharp     Language = "C#"
	LangRuby       Language = "Ruby"
	LangPHP        Language = "PHP"
	LangSwift      Language = "Swift"
	LangDart       Language = "Dart"
	LangShell      Language = "Shell"
	LangSQL        Language = "SQL"
	LangHTML       Language = "HTML"
	LangCSS        Language = "CSS"
	LangJSON       Language = "JSON"
	LangYAML       Language = "YAML"
	LangTOML       Language = "TOML"
	LangXML        Language = "XML"
	LangMarkdown   Language = "Markdown"
	LangText       Language = "Text"
	LangDockerfile Language = "Dockerfile"
	LangMakefile   Language = "Makefile"
)

// Role is the part a file plays in the repository.
type Role string

const (
	RoleSource   Role = "source"
	RoleManifest Role = "manifest"
	RoleConfig   Role = "config"
	RoleDoc      Role = "doc"
	RoleOther    Role = "other"
)

var extLanguages = map[string]Language{
	".go":    LangGo,
	".py":    LangPython,
	".pyi":   LangPython,
	".js":    LangJavaScript,
	".jsx":   LangJavaScript,
	".mjs":   LangJavaScript,
	".cjs":   LangJavaScript,
	".ts":    LangTypeScript,
	".tsx":   LangTypeScript,
	".java":  LangJava,
	".kt":    LangKotlin,
	".kts":   LangKotlin,
	".scala": LangScala,
	".rs":    LangRust,
	".c":     LangC,
	".h":     LangC,
	".cc":    LangCPP,
	".cpp":   LangCPP,
	".cxx":   LangCPP,
	".hpp":   LangCPP,
	".cs":    LangCSharp,
	".rb":    LangRuby,
	".php":   LangPHP,
	".swift": LangSwift,
	".dart":  LangDart,
	".sh":    LangShell,
	".bash":  LangShell,
	".zsh":   LangShell,
	".sql":   LangSQL,
	".html":  LangHTML,
	".htm":   LangHTML,
	".css":   LangCSS,
	".scss":  LangCSS,
	".json":  LangJSON,
	".yml":   LangYAML,
	".yaml":  LangYAML,
	".toml":  LangTOML,
	".xml":   LangXML,
	".md":    LangMarkdown,
	".rst":   LangText,
	".txt":   LangText,
}

var nameLanguages = map[string]Language{
	"dockerfile":  LangDockerfile,
	"makefile":    LangMakefile,
	"gnumakefile": LangMakefile,
	"gemfile":     LangRuby,
	"rakefile":    LangRuby,
	"pipfile":     LangTOML,
}

// programming languages count towards the project type; markup and data do not.
var programming = map[Language]bool{
	LangGo: true, LangPython: true, LangJavaScript: true, LangTypeScript: true,
	LangJava: true, LangKotlin: true, LangScala: true, LangRust: true, LangC: true,
	LangCPP: true, LangCSharp: true, LangRuby: true, LangPHP: true, LangSwift: true,
	LangDart: true, LangShell: true, LangSQL: true,
}

var manifestNames = map[string]bool{
	"requirements.txt":     true,
	"requirements-dev.txt": true,
	"setup.py":             true,
	"setup.cfg":            true,
	"pyproject.toml":       true,
	"pipfile":              true,
	"environment.yml":      true,
	"environment.yaml":     true,
	"package.json":         true,
	"composer.json":        true,
	"go.mod":               true,
	"cargo.toml":           true,
	"pom.xml":              true,
	"build.gradle":         true,
	"build.gradle.kts":     true,
	"gemfile":              true,
	"pubspec.yaml":         true,
}

var configNames = map[string]bool{
	"dockerfile":          true,
	"docker-compose.yml":  true,
	"docker-compose.yaml": true,
	"makefile":            true,
	".env.example":        true,
	".editorconfig":       true,
	".gitignore":          true,
	".dockerignore":       true,
	"tsconfig.json":       true,
	"config.json":         true,
}

var configExts = map[string]bool{
	".json": true, ".yml": true, ".yaml": true, ".toml": true, ".ini": true,
	".cfg": true, ".conf": true, ".properties": true, ".xml": true, ".env": true,
}

var docExts = map[string]bool{".md": true, ".rst": true, ".adoc": true, ".txt": true}

var docStems = []string{"readme", "license", "changelog", "contributing", "authors", "notice", "copying"}

var entryNames = map[string]bool{
	"main.py": true, "app.py": true, "index.py": true, "run.py": true, "__main__.py": true, "manage.py": true,
	"main.go":  true,
	"main.rs":  true,
	"index.js": true, "main.js": true, "app.js": true, "server.js": true,
	"index.ts": true, "main.ts": true, "app.ts": true, "server.ts": true,
	"main.java": true, "application.java": true,
	"program.cs": true,
	"main.c":     true, "main.cpp": true,
	"main.rb": true, "app.rb": true,
	"index.php": true,
	"main.dart": true,
	"main.kt":   true,
	"main.swift": true,
}

// DetectLanguage maps a repo-relative path to a Language via the extension
// table, falling back to well-known file names, then LangUnknown.
func DetectLanguage(p string) Language {
	base := strings.ToLower(path.Base(p))
	if lang, ok := nameLanguages[base]; ok {
		return lang
	}
	if strings.HasPrefix(base, "dockerfile") {
		return LangDockerfile
	}
	if lang, ok := extLanguages[strings.ToLower(path.Ext(base))]; ok {
		return lang
	}
	return LangUnknown
}

// DetectRole classifies a repo-relative path by file name pattern.
func DetectRole(p string) Role {
	base := strings.ToLower(path.Base(p))
	ext := strings.ToLower(path.Ext(base))
	switch {
	case manifestNames[base]:
		return RoleManifest
	case strings.HasPrefix(base, "requirements") && ext == ".txt":
		return RoleManifest
	case configNames[base], strings.HasPrefix(base, "dockerfile"):
		return RoleConfig
	case isDocName(base, ext):
		return RoleDoc
	}
	if programming[DetectLanguage(p)] {
		return RoleSource
	}
	if configExts[ext] || strings.HasPrefix(base, ".env") {
		return RoleConfig
	}
	return RoleOther
}

func isDocName(base, ext string) bool {
	if docExts[ext] {
		return true
	}
	stem := strings.TrimSuffix(base, ext)
	for _, s := range docStems {
		if stem == s {
			return true
		}
	}
	return false
}

// IsEntryPoint reports whether p looks like a program entry point.
func IsEntryPoint(p string) bool {
	base := strings.ToLower(path.Base(p))
	return entryNames[base]
}

// DefaultPrintableRatio is the minimum share of printable runes in a sampled
// prefix for a file to be considered text.
const DefaultPrintableRatio = 0.85

// IsBinary applies the byte-sampling heuristic to a file prefix: any NUL byte
// marks it binary, otherwise the share of printable runes must reach minRatio.
// An empty prefix is text.
func IsBinary(prefix []byte, minRatio float64) bool {
	if len(prefix) == 0 {
		return false
	}
	if minRatio <= 0 {
		minRatio = DefaultPrintableRatio
	}
	var printable, total int
	for i := 0; i < len(prefix); {
		b := prefix[i]
		if b == 0 {
			return true
		}
		r, size := utf8.DecodeRune(prefix[i:])
		if r == utf8.RuneError && size <= 1 {
			// A multi-byte rune cut by the prefix boundary is not evidence of binary data.
			if len(prefix)-i < utf8.UTFMax && !utf8.FullRune(prefix[i:]) {
				break
			}
		} else if isPrintable(r) {
			printable++
		}
		total++
		i += size
	}
	if total == 0 {
		return false
	}
	return float64(printable)/float64(total) < minRatio
}

func isPrintable(r rune) bool {
	switch r {
	case '\n', '\r', '\t', '\f', '\v':
		return true
	}
	return unicode.IsPrint(r) || unicode.IsSpace(r)
}
