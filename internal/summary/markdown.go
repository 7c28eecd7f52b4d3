package summary

import (
	"regexp"
	"strings"
)

var (
	// reImageMD matches markdown images: ![alt](url)
	reImageMD = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	// reImageHTML matches HTML image tags: <img ...>
	reImageHTML = regexp.MustCompile(`(?is)<img[^>]*>`)
	reComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	// reBlankRuns matches 3 or more newlines, optionally separated by spaces.
	reBlankRuns = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

// cleanMarkdown drops what carries no meaning in a prompt (images, badges,
// HTML comments) and collapses blank runs so excerpt lines hold text.
func cleanMarkdown(text string) string {
	text = reImageMD.ReplaceAllString(text, "")
	text = reImageHTML.ReplaceAllString(text, "")
	text = reComment.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimLeft(text, "\n")
}
