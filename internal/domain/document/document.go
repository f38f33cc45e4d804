package document

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxIDLength is the maximum document identifier length in bytes.
const MaxIDLength = 256

// Document is the document aggregate (immutable value object).
type Document struct {
	id       string
	content  string
	metadata map[string]string
}

// New validates and creates a Document.
// ID: non-empty, at most 256 bytes, no brackets or line breaks (ids are cited as "[id]").
// Content: non-empty.
func New(id, content string, metadata map[string]string) (Document, error) {
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if !utf8.ValidString(content) {
		return Document{}, fmt.Errorf("content must be valid UTF-8")
	}

	return Document{
		id:       id,
		content:  content,
		metadata: cloneStringMap(metadata),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, content string, metadata map[string]string) Document {
	return Document{id: id, content: content, metadata: metadata}
}

// ValidateID checks the identifier rules shared by New and the retriever.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if strings.ContainsAny(id, "[]\r\n") {
		return fmt.Errorf("document ID must not contain brackets or line breaks")
	}
	return nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// Metadata returns a copy of the metadata fields.
func (d *Document) Metadata() map[string]string { return cloneStringMap(d.metadata) }

// MetadataValue returns a single metadata field.
func (d *Document) MetadataValue(key string) (string, bool) {
	v, ok := d.metadata[key]
	return v, ok
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
