// Package chunker splits raw document text into overlapping,
// sentence-respecting segments used as retrieval units.
package chunker

import (
	"regexp"
	"strings"
)

const (
	defaultTargetSize = 1000
	defaultOverlap    = 200
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Chunker accumulates sentences greedily up to targetSize characters and
// seeds each following chunk with a sentence-aligned overlap suffix of the
// previous one.
type Chunker struct {
	targetSize int
	overlap    int
}

func New(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = defaultTargetSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= targetSize {
		overlap = defaultOverlap
		if overlap >= targetSize {
			overlap = targetSize / 5
		}
	}
	return &Chunker{
		targetSize: targetSize,
		overlap:    overlap,
	}
}

// Split returns the ordered chunk sequence for text. The chunk index equals
// its position in the returned slice. Empty or whitespace-only input yields
// no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []string
	current := ""

	for _, sentence := range sentences {
		if len(current)+len(sentence) > c.targetSize {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))

				// Seed the next chunk with the tail of the closed one.
				overlap := c.overlapText(current)
				if overlap != "" {
					current = overlap + " " + sentence
				} else {
					current = sentence
				}
			} else {
				// A single sentence longer than the target is split on words.
				chunks = append(chunks, c.splitLongSentence(sentence)...)
				current = ""
			}
		} else {
			if current != "" {
				current += " " + sentence
			} else {
				current = sentence
			}
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	filtered := chunks[:0]
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) != "" {
			filtered = append(filtered, chunk)
		}
	}

	return filtered
}

// overlapText returns the last overlap characters of text, trimmed forward
// to the first sentence boundary inside that window if one exists.
func (c *Chunker) overlapText(text string) string {
	runes := []rune(text)
	if len(runes) <= c.overlap {
		return text
	}

	tail := string(runes[len(runes)-c.overlap:])
	if idx := strings.Index(tail, ". "); idx != -1 {
		return tail[idx+2:]
	}

	return tail
}

// splitLongSentence breaks an oversized sentence into word-level sub-chunks
// with the same greedy accumulation and no overlap.
func (c *Chunker) splitLongSentence(sentence string) []string {
	var chunks []string
	current := ""

	for _, word := range strings.Fields(sentence) {
		if len(current)+len(word)+1 > c.targetSize {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
				current = word
			} else {
				// A single word longer than the target stays whole.
				chunks = append(chunks, word)
			}
		} else {
			if current != "" {
				current += " " + word
			} else {
				current = word
			}
		}
	}

	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// splitSentences cuts text after each of ".", "!" or "?" followed by
// whitespace. Text without such boundaries is a single sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		if i+1 >= len(runes) || runes[i+1] != ' ' {
			continue
		}

		sentences = append(sentences, string(runes[start:i+1]))
		i++
		for i+1 < len(runes) && runes[i+1] == ' ' {
			i++
		}
		start = i + 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
