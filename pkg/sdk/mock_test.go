package ragsearch

import (
	"context"
	"regexp"
	"strings"
)

// citingModel cites every document it finds in the prompt.
type citingModel struct {
	err     error
	prompts []Prompt
}

var promptID = regexp.MustCompile(`(?m)^\[([^\]]+)\]$`)

func (m *citingModel) Complete(_ context.Context, p Prompt) (Completion, error) {
	m.prompts = append(m.prompts, p)
	if m.err != nil {
		return Completion{}, m.err
	}
	var b strings.Builder
	b.WriteString("Answer")
	for _, match := range promptID.FindAllStringSubmatch(p.User, -1) {
		b.WriteString(" [" + match[1] + "]")
	}
	b.WriteString(" [document 99].")
	return Completion{Text: b.String(), Model: "test", PromptTokens: 10, CompletionTokens: 5}, nil
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

func dogDocuments() Option {
	return WithDocuments(
		Document{ID: "document 1", Content: "Alice grows tomatoes in her garden."},
		Document{ID: "document 2", Content: "My neighbour walks two dogs every morning.", Metadata: map[string]string{"source": "notes"}},
		Document{ID: "document 3", Content: "The train to the city leaves at nine."},
	)
}
