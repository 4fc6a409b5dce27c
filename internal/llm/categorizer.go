package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
)

// CategorizationResult holds the categories resolved for a search query.
type CategorizationResult struct {
	// Categories are arXiv-style category codes, in relevance order.
	Categories []string
	// CategoryMap maps each code to a human-readable label.
	CategoryMap domain.CategoryMap
	// Model is the model that produced the result.
	Model string
}

// Categorizer resolves a free-text research query to category codes.
type Categorizer struct {
	completer Completer
}

// NewCategorizer creates a categorizer backed by the given completer.
func NewCategorizer(completer Completer) *Categorizer {
	return &Categorizer{completer: completer}
}

// categorizerResponse is the JSON shape the model is instructed to return.
type categorizerResponse struct {
	Categories  []string          `json:"categories"`
	CategoryMap map[string]string `json:"category_map"`
}

// Categorize asks the model for the category codes best matching the query.
// The model is asked for a fixed number of categories but the result is not
// padded or truncated; callers degrade their view when the count differs.
// Zero categories is a valid outcome. A malformed response is an error.
func (c *Categorizer) Categorize(ctx context.Context, query string) (*CategorizationResult, error) {
	system, prompt := buildCategorizationPrompt(query)

	resp, err := c.completer.Complete(ctx, Request{
		System:      system,
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, fmt.Errorf("categorize query: %w", err)
	}

	var parsed categorizerResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("categorize query: parse model response: %w", err)
	}

	categoryMap := make(domain.CategoryMap, len(parsed.CategoryMap))
	for code, label := range parsed.CategoryMap {
		categoryMap[code] = label
	}
	for _, code := range parsed.Categories {
		if _, ok := categoryMap[code]; !ok {
			categoryMap[code] = code
		}
	}

	return &CategorizationResult{
		Categories:  parsed.Categories,
		CategoryMap: categoryMap,
		Model:       c.completer.Model(),
	}, nil
}

func buildCategorizationPrompt(query string) (system, prompt string) {
	system = "You are an expert research librarian who maps research questions " +
		"to arXiv category codes. You always respond with a single JSON object " +
		`of the form {"categories": ["..."], "category_map": {"code": "label"}} ` +
		"and nothing else."

	prompt = fmt.Sprintf(
		"Identify the %d arXiv categories most relevant to the following research query. "+
			"List the category codes in order of relevance and map each code to a short "+
			"human-readable label.\n\nQuery: %s",
		domain.ExpectedCategoryCount, query)
	return system, prompt
}
