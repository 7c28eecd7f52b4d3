package docgen

import (
	"fmt"
	"strings"

	"repodoc/internal/llm"
	"repodoc/internal/summary"
)

var detailInstructions = map[llm.DetailLevel]string{
	llm.DetailLow:    "Provide a basic overview with minimal technical details.",
	llm.DetailMedium: "Include setup instructions, basic usage, and key features.",
	llm.DetailHigh:   "Include detailed setup instructions, code examples, architecture overview, and comprehensive feature documentation.",
}

// DetailInstruction returns the instruction line for a detail level,
// falling back to medium.
func DetailInstruction(d llm.DetailLevel) string {
	if s, ok := detailInstructions[d]; ok {
		return s
	}
	return detailInstructions[llm.DetailMedium]
}

// BuildRequest combines the task template, the detail level and the shared
// summary text into one model request. The detail level changes only the
// instructions; the summary is passed through as is.
func BuildRequest(t Task, sum *summary.Summary, detail llm.DetailLevel) llm.Request {
	var sys strings.Builder
	sys.WriteString(t.System)
	fmt.Fprintf(&sys, "\n\nDetail Level: %s\nInstructions: %s", detail, DetailInstruction(detail))

	var user strings.Builder
	user.WriteString("Repository Analysis:\n\n")
	if sum != nil {
		user.WriteString(sum.Text)
	}
	if !strings.HasSuffix(user.String(), "\n") {
		user.WriteString("\n")
	}
	fmt.Fprintf(&user, "\nDetail Level: %s\n\n%s\n", detail, t.Instruction)

	return llm.Request{
		Artifact: string(t.Kind),
		System:   sys.String(),
		Prompt:   user.String(),
		Detail:   detail,
	}
}
