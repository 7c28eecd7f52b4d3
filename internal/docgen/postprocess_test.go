package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_AddsTitle(t *testing.T) {
	got := Normalize(Setup, "Install with `make`.")
	assert.Equal(t, "# Setup\n\nInstall with `make`.\n", got)
}

func TestNormalize_KeepsExistingHeading(t *testing.T) {
	got := Normalize(Readme, "\n# Demo\n\nText\n\n")
	assert.Equal(t, "# Demo\n\nText\n", got)
}

func TestNormalize_UnwrapsMarkdownFence(t *testing.T) {
	raw := "```markdown\n# Demo\n\nSome text\n```"
	assert.Equal(t, "# Demo\n\nSome text\n", Normalize(Readme, raw))
}

func TestNormalize_KeepsCodeFenceOfOtherLanguage(t *testing.T) {
	raw := "```go\nfunc main() {}\n```"
	got := Normalize(Usage, raw)
	assert.Equal(t, "# Usage\n\n"+raw+"\n", got)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(API, " \n "))
}

func TestHeadings(t *testing.T) {
	doc := "# Title\n\ntext\n\n## Install\n\n### Step 1\n"
	assert.Equal(t, []string{"Title", "Install", "Step 1"}, Headings(doc))
}
