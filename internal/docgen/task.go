// Package docgen turns the repository summary into documentation artifacts,
// one budget-gated model call per artifact.
package docgen

import (
	"fmt"
	"strings"
)

// ArtifactKind identifies one generated documentation file.
type ArtifactKind string

const (
	Readme       ArtifactKind = "readme"
	Architecture ArtifactKind = "architecture"
	API          ArtifactKind = "api"
	Setup        ArtifactKind = "setup"
	Usage        ArtifactKind = "usage"
)

// Title is the human-readable artifact name used for headings.
func (k ArtifactKind) Title() string {
	switch k {
	case Readme:
		return "README"
	case API:
		return "API Reference"
	case Architecture:
		return "Architecture"
	case Setup:
		return "Setup"
	case Usage:
		return "Usage"
	}
	return string(k)
}

// ParseArtifactKind accepts an artifact name in any case.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	k := ArtifactKind(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range catalog {
		if t.Kind == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("docgen: unknown artifact %q", s)
}

// Precondition gates a task on the current output state.
type Precondition string

const (
	// Always generates unconditionally.
	Always Precondition = "always"
	// WhenAbsent generates only if the artifact is not already present,
	// as judged by the configured presence policy.
	WhenAbsent Precondition = "when_absent"
)

// Task is a statically defined documentation job.
type Task struct {
	Kind         ArtifactKind
	Priority     int
	Precondition Precondition
	// System is the artifact-specific system prompt.
	System string
	// Instruction closes the user prompt.
	Instruction string
}

// catalog is ordered by priority.
var catalog = []Task{
	{
		Kind:         Readme,
		Priority:     0,
		Precondition: WhenAbsent,
		System: `You are an expert technical writer creating README.md files for software projects.

Create a well-structured README.md that includes:
1. Project title and description
2. Features and capabilities
3. Installation and setup instructions
4. Usage examples
5. Project structure overview
6. Contributing guidelines (if applicable)
7. License information (if available)

Use proper Markdown formatting and make it professional and informative.`,
		Instruction: "Please generate a comprehensive README.md file for this repository.",
	},
	{
		Kind:         Architecture,
		Priority:     1,
		Precondition: Always,
		System: `You are an expert software architect creating architecture documentation.

Create detailed architecture documentation that includes:
1. System overview and high-level design
2. Component architecture and relationships
3. Data flow and processing
4. Technology stack and dependencies
5. Deployment architecture (if applicable)
6. Security considerations (if applicable)

Use clear diagrams in text format (ASCII art) and provide comprehensive technical details.`,
		Instruction: "Generate comprehensive architecture documentation including system design, component relationships, and data flow.",
	},
	{
		Kind:         API,
		Priority:     2,
		Precondition: Always,
		System: `You are an expert API documentation writer.

Create comprehensive API documentation that includes:
1. API overview and purpose
2. Authentication methods (if applicable)
3. Endpoint documentation with parameters
4. Request/response examples
5. Error handling
6. Rate limiting (if applicable)
7. SDK examples (if applicable)

Use clear examples and provide practical usage scenarios.`,
		Instruction: "Generate comprehensive API documentation including endpoints, parameters, and usage examples.",
	},
	{
		Kind:         Setup,
		Priority:     3,
		Precondition: Always,
		System: `You are an expert DevOps engineer creating setup documentation.

Create comprehensive setup documentation that includes:
1. Prerequisites and system requirements
2. Installation steps
3. Configuration setup
4. Environment variables
5. Database setup (if applicable)
6. Testing the installation
7. Troubleshooting common issues

Provide step-by-step instructions that are easy to follow.`,
		Instruction: "Generate detailed setup and installation documentation.",
	},
	{
		Kind:         Usage,
		Priority:     4,
		Precondition: Always,
		System: `You are an expert software developer creating usage documentation.

Create comprehensive usage documentation that includes:
1. Getting started guide
2. Basic usage examples
3. Advanced features and configurations
4. Best practices and patterns
5. Common use cases
6. Performance optimization tips
7. Integration examples

Provide practical examples and real-world scenarios.`,
		Instruction: "Generate comprehensive usage documentation with examples and best practices.",
	},
}

// Tasks returns the task catalog in priority order:
// readme, architecture, api, setup, usage.
func Tasks() []Task {
	return append([]Task(nil), catalog...)
}

// Select returns the catalog tasks whose kinds are listed, in priority order.
// An empty list selects every task.
func Select(kinds []ArtifactKind) []Task {
	if len(kinds) == 0 {
		return Tasks()
	}
	want := map[ArtifactKind]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	var out []Task
	for _, t := range catalog {
		if want[t.Kind] {
			out = append(out, t)
		}
	}
	return out
}
