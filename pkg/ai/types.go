package ai

import "context"

// CompletionRequest carries one system/user prompt pair for a chat
// completion call.
type CompletionRequest struct {
	System string
	User   string
}

// ChatClient abstracts the upstream chat-completion API. Implementations
// return the raw assistant text; callers are responsible for defensively
// parsing whatever structure they expect inside it.
type ChatClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
