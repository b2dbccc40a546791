package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	c := New(100, 20)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \t\n  "))
}

func TestSplitSingleShortSentence(t *testing.T) {
	c := New(100, 20)

	chunks := c.Split("Cats are mammals.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Cats are mammals.", chunks[0])
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	c := New(100, 20)

	chunks := c.Split("Cats   are\n\tmammals.   Dogs too.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Cats are mammals. Dogs too.", chunks[0])
}

func TestSplitRespectsSentenceBoundaries(t *testing.T) {
	c := New(40, 10)

	chunks := c.Split("Cats are mammals. Dogs are mammals too. Fish are not mammals.")

	require.GreaterOrEqual(t, len(chunks), 2)
	require.LessOrEqual(t, len(chunks), 3)

	// The first chunk closes before the sentence that would overflow it.
	assert.Equal(t, "Cats are mammals. Dogs are mammals too.", chunks[0])
	assert.Contains(t, chunks[len(chunks)-1], "Fish are not mammals.")
}

func TestSplitChunksCoverInput(t *testing.T) {
	c := New(80, 20)
	text := "One sentence here. Another sentence follows. A third one appears. " +
		"Then a fourth sentence. And finally a fifth sentence to close."

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	// Every sentence of the input must appear in at least one chunk.
	for _, sentence := range []string{
		"One sentence here.",
		"Another sentence follows.",
		"A third one appears.",
		"Then a fourth sentence.",
		"And finally a fifth sentence to close.",
	} {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk, sentence) {
				found = true
				break
			}
		}
		assert.True(t, found, "sentence %q missing from all chunks", sentence)
	}
}

func TestSplitChunkSizeBound(t *testing.T) {
	c := New(50, 10)
	text := strings.Repeat("Short sentence here. ", 30)

	for i, chunk := range c.Split(text) {
		// Only a single oversized word may exceed the target size.
		if !strings.Contains(chunk, " ") {
			continue
		}
		assert.LessOrEqual(t, len(chunk), 50+len("Short sentence here."),
			"chunk %d unexpectedly large: %q", i, chunk)
	}
}

func TestSplitOverlapSeedsNextChunk(t *testing.T) {
	c := New(40, 10)

	chunks := c.Split("Cats are mammals. Dogs are mammals too. Fish are not mammals.")

	require.GreaterOrEqual(t, len(chunks), 2)
	// The second chunk starts with the overlap tail of the first. No ". "
	// boundary exists inside the 10-character window, so the raw suffix is
	// used.
	first := chunks[0]
	runes := []rune(first)
	tail := string(runes[len(runes)-10:])
	assert.True(t, strings.HasPrefix(chunks[1], tail),
		"chunk %q does not start with overlap %q", chunks[1], tail)
}

func TestSplitOverlapTrimsToSentenceBoundary(t *testing.T) {
	c := New(60, 30)

	chunks := c.Split("Alpha beta gamma delta epsilon. Zeta eta. Theta iota kappa lambda mu nu xi omicron pi.")

	require.GreaterOrEqual(t, len(chunks), 2)
	// The 30-char window over the first chunk contains the ". " after
	// "epsilon.", so the overlap starts at the following sentence.
	assert.True(t, strings.HasPrefix(chunks[1], "Zeta eta."), "overlap anchored mid-word: %q", chunks[1])
}

func TestSplitOversizedSentenceFallsBackToWords(t *testing.T) {
	c := New(20, 5)

	chunks := c.Split("alpha beta gamma delta epsilon zeta eta theta iota kappa")

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 20, "word chunk too long: %q", chunk)
	}
}

func TestSplitSingleOversizedWord(t *testing.T) {
	c := New(10, 2)
	word := strings.Repeat("x", 25)

	chunks := c.Split(word)

	require.Len(t, chunks, 1)
	assert.Equal(t, word, chunks[0])
}

func TestSplitNoPunctuationTreatedAsOneSentence(t *testing.T) {
	c := New(1000, 100)

	chunks := c.Split("plain text without any sentence punctuation at all")

	require.Len(t, chunks, 1)
}

func TestNewClampsInvalidConfig(t *testing.T) {
	c := New(0, -1)

	assert.Equal(t, defaultTargetSize, c.targetSize)
	assert.Equal(t, 0, c.overlap)

	c = New(50, 60)
	assert.Less(t, c.overlap, c.targetSize)
}
