package ragsearch

import (
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
)

// Document is a unit of searchable text.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Candidate is a document the answer was generated from.
type Candidate struct {
	ID    string
	Score float64
}

// Answer is the grounded response to one query.
type Answer struct {
	Text       string
	Citations  []string // document IDs in order of first appearance
	Candidates []Candidate
}

func documentFromDomain(d *domdoc.Document) Document {
	return Document{ID: d.ID(), Content: d.Content(), Metadata: d.Metadata()}
}

func answerFromDomain(r *answer.Response) Answer {
	cands := r.Candidates()
	out := Answer{
		Text:       r.Text(),
		Citations:  r.Citations(),
		Candidates: make([]Candidate, len(cands)),
	}
	for i := range cands {
		out.Candidates[i] = Candidate{ID: cands[i].ID(), Score: cands[i].Score()}
	}
	return out
}
