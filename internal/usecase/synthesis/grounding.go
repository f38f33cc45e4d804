package synthesis

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
)

var (
	citationRe   = regexp.MustCompile(`\[([^\[\]\r\n]+)\]`)
	digitsRe     = regexp.MustCompile(`[0-9]+`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
	spacePunctRe = regexp.MustCompile(`[ \t]+([.,;:!?])`)
)

// ground keeps citation markers whose ids are in pctx and removes the rest.
// A marker may list several ids separated by commas or semicolons.
// Brackets that are not document references are left alone: markdown link
// text, and markers where no part is a known id or shaped like one
// ("document 7" when the context cites "document 2").
// Returns the cleaned text, grounded ids in order of first appearance,
// and the number of ids removed.
func ground(text string, pctx *candidate.Context) (string, []string, int) {
	var citations []string
	seen := make(map[string]struct{})
	removed := 0
	shapes := idShapes(pctx)

	cite := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			citations = append(citations, id)
		}
	}

	var out strings.Builder
	last := 0
	for _, loc := range citationRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		out.WriteString(text[last:start])
		last = end

		marker := text[start:end]
		if end < len(text) && text[end] == '(' {
			out.WriteString(marker)
			continue
		}

		inner := strings.TrimSpace(marker[1 : len(marker)-1])
		if pctx.Contains(inner) {
			cite(inner)
			out.WriteString("[" + inner + "]")
			continue
		}

		parts := splitMarker(inner)
		if !isReference(parts, pctx, shapes) {
			out.WriteString(marker)
			continue
		}

		kept := make([]string, 0, len(parts))
		for _, id := range parts {
			if pctx.Contains(id) {
				cite(id)
				kept = append(kept, id)
			} else {
				removed++
			}
		}
		if len(kept) > 0 {
			out.WriteString("[" + strings.Join(kept, ", ") + "]")
		}
	}
	out.WriteString(text[last:])

	cleaned := out.String()
	if removed > 0 {
		cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
		cleaned = spacePunctRe.ReplaceAllString(cleaned, "$1")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned, citations, removed
}

func splitMarker(inner string) []string {
	fields := strings.FieldsFunc(inner, func(r rune) bool { return r == ',' || r == ';' })
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if p := strings.TrimSpace(f); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// isReference reports whether a marker cites documents: some part is a
// known id, or every part has the shape of one.
func isReference(parts []string, pctx *candidate.Context, shapes map[string]struct{}) bool {
	if len(parts) == 0 {
		return false
	}
	shaped := 0
	for _, p := range parts {
		if pctx.Contains(p) {
			return true
		}
		if _, ok := shapes[idShape(p)]; ok {
			shaped++
		}
	}
	return shaped == len(parts)
}

// idShapes collects the shapes of context ids that carry a number.
func idShapes(pctx *candidate.Context) map[string]struct{} {
	shapes := make(map[string]struct{})
	for _, id := range pctx.IDs() {
		if digitsRe.MatchString(id) {
			shapes[idShape(id)] = struct{}{}
		}
	}
	return shapes
}

// idShape replaces every digit run with '#': "doc-12" and "doc-3" share "doc-#".
func idShape(id string) string {
	return digitsRe.ReplaceAllString(id, "#")
}
