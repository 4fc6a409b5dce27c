package tts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitScript_ShortScriptSingleChunk(t *testing.T) {
	chunks := SplitScript("Welcome to the show. Today we talk about transformers.", 4000)
	require.Len(t, chunks, 1)
}

func TestSplitScript_EmptyScript(t *testing.T) {
	assert.Nil(t, SplitScript("  \n ", 4000))
}

func TestSplitScript_BreaksAtSentenceBoundaries(t *testing.T) {
	script := "First sentence here. Second sentence here! Third sentence here? Fourth sentence here."
	chunks := SplitScript(script, 45)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 45)
		last := c[len(c)-1]
		assert.Contains(t, ".!?", string(last), "chunk should end at a sentence boundary: %q", c)
	}
}

func TestSplitScript_PreservesAllText(t *testing.T) {
	script := "Alpha beta gamma. Delta epsilon zeta! Eta theta iota? Kappa lambda mu."
	chunks := SplitScript(script, 25)

	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(strings.NewReplacer(".", "", "!", "", "?", "").Replace(script)) {
		assert.Contains(t, joined, word)
	}
}

func TestSplitScript_LongSentenceFallsBackToClauses(t *testing.T) {
	sentence := "clause one is long, clause two is long, clause three is long, clause four is long."
	chunks := SplitScript(sentence+" "+sentence, 40)

	require.Greater(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 40)
	}
}

func TestSplitScript_UnbrokenTextFallsBackToWords(t *testing.T) {
	script := strings.Repeat("word ", 50)
	chunks := SplitScript(script, 30)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 30)
	}
}

func TestSplitScript_KeepsEllipsisTogether(t *testing.T) {
	chunks := SplitScript("Well... that was unexpected. Indeed it was.", 30)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Well... that was unexpected.", chunks[0])
	assert.Equal(t, "Indeed it was.", chunks[1])
}

func TestSplitScript_DoesNotSplitDecimalNumbers(t *testing.T) {
	chunks := SplitScript("The accuracy was 99.5 percent overall. A strong result.", 40)
	require.Len(t, chunks, 2)
	assert.Equal(t, "The accuracy was 99.5 percent overall.", chunks[0])
}
