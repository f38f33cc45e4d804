package candidate

// Context is the ordered set of candidates actually embedded into one prompt.
// Citations in the model output are checked against it.
type Context struct {
	items []Candidate
	ids   map[string]struct{}
}

// NewContext creates a prompt context from the given candidates, preserving order.
func NewContext(items []Candidate) Context {
	ids := make(map[string]struct{}, len(items))
	for i := range items {
		ids[items[i].ID()] = struct{}{}
	}
	return Context{items: items, ids: ids}
}

// Items returns the candidates in prompt order.
func (c *Context) Items() []Candidate { return c.items }

// Len returns the number of candidates.
func (c *Context) Len() int { return len(c.items) }

// Contains reports whether id is part of the context.
func (c *Context) Contains(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// IDs returns document identifiers in prompt order.
func (c *Context) IDs() []string {
	out := make([]string, len(c.items))
	for i := range c.items {
		out[i] = c.items[i].ID()
	}
	return out
}
