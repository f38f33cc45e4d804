package synthesis

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
)

const (
	groundedInstructions = "You answer questions using only the documents provided below. " +
		"Each document starts with its identifier in square brackets. " +
		"Cite every document you rely on by writing its identifier in square brackets, for example [doc-7]. " +
		"Never cite identifiers that are not listed. " +
		"If the documents do not answer the question, say that no relevant information was found."

	noContextInstructions = "No documents relevant to the question were found. " +
		"Tell the user briefly that no relevant information is available. " +
		"Do not invent facts and do not cite any documents."

	truncationMark = " ..."

	// minLeadBody is the smallest body kept for the top candidate when
	// the context budget is tighter than its header.
	minLeadBody = 16
)

// buildPrompt renders candidates into a bounded prompt.
// Each document is cut to maxDocChars; once the next one no longer fits
// maxContextChars it and all lower-ranked candidates are left out.
// The top candidate is always kept, cut further to the room left after its header.
func buildPrompt(query string, cands []candidate.Candidate, maxDocChars, maxContextChars int) (domain.Prompt, candidate.Context) {
	var docs strings.Builder
	included := make([]candidate.Candidate, 0, len(cands))
	remaining := maxContextChars

	for i := range cands {
		doc := cands[i].Document()
		header := "[" + cands[i].ID() + "]\n"
		body := truncate(strings.TrimSpace(doc.Content()), maxDocChars)

		need := runeLen(header) + runeLen(body) + 2
		if need > remaining {
			if i > 0 {
				break
			}
			body = truncate(body, max(remaining-runeLen(header)-2, minLeadBody))
			need = remaining
		}

		docs.WriteString(header)
		docs.WriteString(body)
		docs.WriteString("\n\n")
		remaining -= need
		included = append(included, cands[i])
	}

	pctx := candidate.NewContext(included)
	if pctx.Len() == 0 {
		return domain.Prompt{
			System: noContextInstructions,
			User:   "Question: " + query,
		}, pctx
	}

	return domain.Prompt{
		System: groundedInstructions,
		User:   "Documents:\n\n" + docs.String() + "Question: " + query,
	}, pctx
}

// truncate cuts s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	keep := n - runeLen(truncationMark)
	if keep <= 0 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:keep]) + truncationMark
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
