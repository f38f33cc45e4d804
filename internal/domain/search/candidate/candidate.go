package candidate

import (
	"sort"

	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

// Candidate is a document scored against a single query.
type Candidate struct {
	doc   domdoc.Document
	score float64
}

// New creates a ranked candidate.
func New(doc domdoc.Document, score float64) Candidate {
	return Candidate{doc: doc, score: score}
}

// Document returns the scored document.
func (c *Candidate) Document() domdoc.Document { return c.doc }

// ID returns the document identifier.
func (c *Candidate) ID() string { return c.doc.ID() }

// Score returns the relevance score.
func (c *Candidate) Score() float64 { return c.score }

// Sort orders candidates by score descending, ties broken by document ID ascending.
func Sort(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score > cs[j].score
		}
		return cs[i].ID() < cs[j].ID()
	})
}

// IsSorted reports whether cs follows the Sort ordering.
func IsSorted(cs []Candidate) bool {
	for i := 1; i < len(cs); i++ {
		prev, cur := cs[i-1], cs[i]
		if prev.score < cur.score {
			return false
		}
		if prev.score == cur.score && prev.ID() > cur.ID() {
			return false
		}
	}
	return true
}
