package summary

import (
	"fmt"
	"sort"
	"strings"

	"repodoc/internal/scan"
)

// Outline collapses the inventory paths into a sorted, depth-limited listing.
// Directories carry a trailing "/"; files at the root are listed by name.
func Outline(inv *scan.Inventory, depth int) []string {
	if depth <= 0 {
		depth = DefaultOutlineDepth
	}
	set := map[string]struct{}{}
	for _, r := range inv.Records {
		segs := strings.Split(r.Path, "/")
		if len(segs) == 1 {
			set[r.Path] = struct{}{}
			continue
		}
		for i := 1; i < len(segs) && i <= depth; i++ {
			set[strings.Join(segs[:i], "/")+"/"] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// outlineLine renders one outline entry indented by depth, with a file count
// for directories.
func outlineLine(entry string, inv *scan.Inventory) string {
	trimmed := strings.TrimSuffix(entry, "/")
	depth := strings.Count(trimmed, "/")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	indent := strings.Repeat("  ", depth)
	if !strings.HasSuffix(entry, "/") {
		return indent + name + "\n"
	}
	n := 0
	for _, r := range inv.Records {
		if strings.HasPrefix(r.Path, entry) {
			n++
		}
	}
	return fmt.Sprintf("%s%s/ (%d files)\n", indent, name, n)
}
