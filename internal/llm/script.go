package llm

import (
	"context"
	"fmt"
	"strings"
)

// defaultScriptPrompt instructs the model to turn a paper into a podcast
// episode. Deployments can override it via ScriptGenerator's prompt option.
const defaultScriptPrompt = "You are a podcast host explaining complex academic papers in a simple, engaging way. " +
	"Analyze the provided PDF document, which is an academic paper. " +
	"Generate a podcast script that explains the key findings, methodology, and significance of this paper in plain English. " +
	"The script should be structured like a conversational podcast episode, approximately 30 minutes long when spoken. " +
	"Include an introduction, main explanation sections, and a concluding summary. " +
	"Make it accessible to a general audience interested in the topic, avoiding excessive jargon." +
	"\n\nStart the podcast script now:"

// ScriptGenerator turns a paper PDF into a spoken-word podcast script.
type ScriptGenerator struct {
	completer DocumentCompleter
	prompt    string
}

// NewScriptGenerator creates a script generator backed by a document-capable
// completer. An empty prompt selects the default.
func NewScriptGenerator(completer DocumentCompleter, prompt string) *ScriptGenerator {
	if prompt == "" {
		prompt = defaultScriptPrompt
	}
	return &ScriptGenerator{completer: completer, prompt: prompt}
}

// Generate produces a podcast script from raw PDF bytes.
func (g *ScriptGenerator) Generate(ctx context.Context, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", fmt.Errorf("generate script: empty pdf")
	}

	resp, err := g.completer.CompleteWithDocument(ctx, Request{
		Prompt:      g.prompt,
		Temperature: 0.7,
	}, Document{
		MIMEType: "application/pdf",
		Data:     pdf,
	})
	if err != nil {
		return "", fmt.Errorf("generate script: %w", err)
	}

	script := strings.TrimSpace(resp.Content)
	if script == "" {
		return "", fmt.Errorf("generate script: model returned an empty script")
	}
	return script, nil
}
