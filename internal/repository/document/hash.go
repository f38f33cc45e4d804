package document

import domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"

// contentField holds the document text; every other hash field is metadata.
const contentField = "__content"

// parseHashFields converts a flat hash map into a domain Document.
// No validation: malformed records surface as InvalidDocumentError in the retriever.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	var content string
	var metadata map[string]string

	for k, v := range m {
		if k == contentField {
			content = v
			continue
		}
		if metadata == nil {
			metadata = make(map[string]string, len(m)-1)
		}
		metadata[k] = v
	}

	return domdoc.Reconstruct(id, content, metadata)
}
