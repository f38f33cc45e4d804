package answer

import "github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"

// Response is the grounded answer to one query.
type Response struct {
	text       string
	citations  []string
	candidates []candidate.Candidate
}

// New creates a response. citations must be a subset of the candidate IDs.
func New(text string, citations []string, candidates []candidate.Candidate) Response {
	return Response{text: text, citations: citations, candidates: candidates}
}

// Text returns the model answer.
func (r *Response) Text() string { return r.text }

// Citations returns grounded document IDs in order of first appearance.
func (r *Response) Citations() []string { return r.citations }

// Candidates returns the candidates the answer was generated from, in prompt order.
func (r *Response) Candidates() []candidate.Candidate { return r.candidates }
