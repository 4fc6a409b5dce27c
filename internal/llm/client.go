// Package llm provides clients for large language model providers and the
// prompt-level tasks built on them: query categorization, plain-title
// generation, and podcast script generation.
package llm

import "context"

// Request is a provider-agnostic completion request.
type Request struct {
	// System is the system instruction, if the provider supports one.
	System string
	// Prompt is the user prompt.
	Prompt string
	// JSONMode requests a JSON object response where the provider supports it.
	JSONMode bool
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxTokens caps the completion length. Zero means the provider default.
	MaxTokens int
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Completer generates a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider() string
	Model() string
}

// Document is a binary attachment sent alongside a prompt.
type Document struct {
	// MIMEType identifies the document format (e.g. "application/pdf").
	MIMEType string
	// Data is the raw document bytes.
	Data []byte
}

// DocumentCompleter generates a completion grounded in an attached document.
type DocumentCompleter interface {
	CompleteWithDocument(ctx context.Context, req Request, doc Document) (*Response, error)
	Provider() string
	Model() string
}
