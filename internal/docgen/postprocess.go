package docgen

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// Normalize cleans model output into a markdown document: it unwraps a reply
// that is one fenced markdown block and adds a title heading when the
// document does not open with one.
func Normalize(kind ArtifactKind, raw string) string {
	src := []byte(strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n")))
	if len(src) == 0 {
		return ""
	}
	if inner, ok := unwrapFence(src); ok {
		src = bytes.TrimSpace(inner)
	}
	if !startsWithHeading(src) {
		src = append([]byte("# "+kind.Title()+"\n\n"), src...)
	}
	return string(src) + "\n"
}

func unwrapFence(src []byte) ([]byte, bool) {
	doc := md.Parser().Parse(text.NewReader(src))
	first := doc.FirstChild()
	if first == nil || first.NextSibling() != nil || first.Kind() != ast.KindFencedCodeBlock {
		return nil, false
	}
	fcb := first.(*ast.FencedCodeBlock)
	switch strings.ToLower(string(fcb.Language(src))) {
	case "", "markdown", "md":
	default:
		return nil, false
	}
	var buf bytes.Buffer
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes(), true
}

func startsWithHeading(src []byte) bool {
	doc := md.Parser().Parse(text.NewReader(src))
	first := doc.FirstChild()
	return first != nil && first.Kind() == ast.KindHeading
}

// Headings returns the text of every heading in document order.
func Headings(doc string) []string {
	src := []byte(doc)
	root := md.Parser().Parse(text.NewReader(src))
	var out []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		out = append(out, b.String())
		return ast.WalkSkipChildren, nil
	})
	return out
}
