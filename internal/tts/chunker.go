// Package tts converts podcast scripts into speech audio.
package tts

import "strings"

// DefaultMaxChunkSize keeps chunks under the OpenAI TTS 4096-character input
// limit with headroom.
const DefaultMaxChunkSize = 4000

// SplitScript splits a script into chunks of at most maxChunk characters,
// breaking at sentence boundaries so no chunk ends mid-sentence. A single
// sentence longer than maxChunk is further split at clause punctuation, and
// as a last resort at word boundaries.
func SplitScript(script string, maxChunk int) []string {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunkSize
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}
	if len(script) <= maxChunk {
		return []string{script}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(script) {
		if len(sentence) > maxChunk {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			chunks = append(chunks, splitLongSentence(sentence, maxChunk)...)
			continue
		}

		// +1 for the joining space.
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxChunk {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// splitSentences breaks text at sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isSentenceEnd(text[i]) {
			continue
		}
		// Consume a run of terminators ("?!", "...").
		end := i + 1
		for end < len(text) && isSentenceEnd(text[end]) {
			end++
		}
		if end < len(text) && !isSpace(text[end]) {
			i = end - 1
			continue
		}
		sentence := strings.TrimSpace(text[start:end])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		for end < len(text) && isSpace(text[end]) {
			end++
		}
		start = end
		i = end - 1
	}
	if start < len(text) {
		if tail := strings.TrimSpace(text[start:]); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

// splitLongSentence breaks an oversized sentence at clause punctuation, then
// at word boundaries if a clause is still too long.
func splitLongSentence(sentence string, maxChunk int) []string {
	var parts []string
	var current strings.Builder
	for _, clause := range splitClauses(sentence) {
		if len(clause) > maxChunk {
			if current.Len() > 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			}
			parts = append(parts, splitWords(clause, maxChunk)...)
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(clause) > maxChunk {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(clause)
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

func splitClauses(sentence string) []string {
	var clauses []string
	start := 0
	for i := 0; i < len(sentence); i++ {
		switch sentence[i] {
		case ',', ';', ':':
			clause := strings.TrimSpace(sentence[start : i+1])
			if clause != "" {
				clauses = append(clauses, clause)
			}
			start = i + 1
		}
	}
	if start < len(sentence) {
		if tail := strings.TrimSpace(sentence[start:]); tail != "" {
			clauses = append(clauses, tail)
		}
	}
	return clauses
}

func splitWords(text string, maxChunk int) []string {
	words := strings.Fields(text)
	var parts []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > maxChunk {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
