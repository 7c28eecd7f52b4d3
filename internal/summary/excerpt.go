package summary

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"repodoc/internal/scan"
)

// Rank orders excerpt candidates: manifests first, then entry points, other
// source, config and docs. Files with role "other" are never excerpted.
func Rank(r scan.FileRecord) (int, bool) {
	switch r.Role {
	case scan.RoleManifest:
		return 0, true
	case scan.RoleSource:
		if r.EntryPoint {
			return 1, true
		}
		return 2, true
	case scan.RoleConfig:
		return 3, true
	case scan.RoleDoc:
		return 4, true
	}
	return 0, false
}

// Candidates returns the excerpt candidates in rank order, ties broken by path.
func Candidates(inv *scan.Inventory) []scan.FileRecord {
	type ranked struct {
		rank int
		rec  scan.FileRecord
	}
	var list []ranked
	for _, r := range inv.Records {
		if rank, ok := Rank(r); ok {
			list = append(list, ranked{rank, r})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].rank != list[j].rank {
			return list[i].rank < list[j].rank
		}
		return list[i].rec.Path < list[j].rec.Path
	})
	out := make([]scan.FileRecord, len(list))
	for i, l := range list {
		out[i] = l.rec
	}
	return out
}

// excerpts greedily appends file heads in rank order until the next one would
// overflow budget. Inclusion stops there; later files are omitted whole.
func (b *builder) excerpts(budget int) ([]Excerpt, string, []string) {
	cands := Candidates(b.inv)
	var (
		included []Excerpt
		omitted  []string
		text     strings.Builder
		used     int
		stopped  bool
	)
	headingLen := utf8.RuneCountInString(excerptHeading)
	for _, r := range cands {
		if stopped {
			omitted = append(omitted, r.Path)
			continue
		}
		body, lines, err := b.head(r)
		if err != nil {
			b.opts.Log.Debug("excerpt unreadable", zap.String("path", r.Path), zap.Error(err))
			omitted = append(omitted, r.Path)
			continue
		}
		if lines == 0 {
			continue
		}
		block := fmt.Sprintf("### %s (%s)\n```\n%s```\n\n", r.Path, r.Role, body)
		need := utf8.RuneCountInString(block)
		if len(included) == 0 {
			need += headingLen
		}
		if used+need > budget {
			stopped = true
			omitted = append(omitted, r.Path)
			continue
		}
		if len(included) == 0 {
			text.WriteString(excerptHeading)
		}
		text.WriteString(block)
		used += need
		included = append(included, Excerpt{Path: r.Path, Role: r.Role, Lines: lines})
	}
	return included, text.String(), omitted
}

// head returns the first ExcerptLines lines of r, each capped at LineWidth
// characters and newline-terminated.
func (b *builder) head(r scan.FileRecord) (string, int, error) {
	data, err := b.read(r, maxExcerptRead)
	if err != nil {
		return "", 0, err
	}
	content := strings.ToValidUTF8(string(data), "�")
	if r.Language == scan.LangMarkdown {
		content = cleanMarkdown(content)
	}
	var out strings.Builder
	n := 0
	for n < b.opts.ExcerptLines && content != "" {
		line := content
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			content = ""
		}
		line = strings.TrimRight(line, "\r")
		if utf8.RuneCountInString(line) > b.opts.LineWidth {
			line = truncateRunes(line, b.opts.LineWidth) + "..."
		}
		// A fence inside an excerpt would end the block early.
		line = strings.ReplaceAll(line, "```", "'''")
		out.WriteString(line)
		out.WriteString("\n")
		n++
	}
	return out.String(), n, nil
}
