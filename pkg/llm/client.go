// Package llm defines the narrow capability the compose pipeline and
// prompt-driven suggestion flow need from a language model backend.
package llm

import "context"

// Message is a single role-tagged chat message sent to a model.
type Message struct {
	Role    string
	Content string
}

// Client is deliberately narrow: callers build full message lists via
// pkg/prompt and only need a synchronous reply, never streaming chunks or
// tool-call plumbing. Concrete backends (OpenAI, a local model server, a
// test double) each implement this directly; no shared base client.
type Client interface {
	// Reply sends messages to modelID at the given temperature and returns
	// the model's full text reply.
	Reply(ctx context.Context, messages []Message, modelID string, temperature float64) (string, error)
}
