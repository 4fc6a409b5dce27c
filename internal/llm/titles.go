package llm

import (
	"context"
	"fmt"
	"strings"
)

// TitleEnricher generates plain-English titles for academic papers.
type TitleEnricher struct {
	completer Completer
}

// NewTitleEnricher creates a title enricher backed by the given completer.
func NewTitleEnricher(completer Completer) *TitleEnricher {
	return &TitleEnricher{completer: completer}
}

// PlainTitle generates a short, jargon-free title from the paper's original
// title and abstract. The returned string is trimmed and stripped of quotes.
func (e *TitleEnricher) PlainTitle(ctx context.Context, title, abstract string) (string, error) {
	if title == "" || abstract == "" {
		return "", fmt.Errorf("plain title: title and abstract are required")
	}

	prompt := fmt.Sprintf(
		"You are an expert science communicator tasked with creating engaging titles for the public.\n"+
			"Based on the following academic paper's title and abstract, generate a short, catchy, "+
			"and easy-to-understand 'plain English' title. "+
			"Focus on the core idea or key finding. Avoid jargon. Make it sound intriguing.\n\n"+
			"Original Title: %s\n\n"+
			"Abstract: %s\n\n"+
			"Generate ONLY the plain English title:",
		title, abstract)

	resp, err := e.completer.Complete(ctx, Request{
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   128,
	})
	if err != nil {
		return "", fmt.Errorf("plain title: %w", err)
	}

	plain := strings.ReplaceAll(strings.TrimSpace(resp.Content), `"`, "")
	if plain == "" {
		return "", fmt.Errorf("plain title: model returned an empty title")
	}
	return plain, nil
}
