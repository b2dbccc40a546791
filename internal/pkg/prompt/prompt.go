// Package prompt renders the deterministic prompts sent to the language
// model. Identical inputs always produce identical prompt text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

const answerTemplate = `You are a helpful AI assistant that answers questions based on provided document context.

Use the following context to answer the user's question. If the answer cannot be found in the context, say so clearly.

Context:
%s

Question: %s

Answer: Please provide a comprehensive answer based on the context above. If you reference specific information, indicate which context section it comes from.`

const titleTemplate = `Generate a short, descriptive title (max 6 words) for a chat session that starts with this question:

"%s"

Title:`

// Build renders the answer-generation prompt: numbered context blocks in
// result order followed by the question.
func Build(question string, results []entity.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, result := range results {
		blocks = append(blocks, fmt.Sprintf("[Context %d]:\n%s", i+1, result.Content))
	}

	return fmt.Sprintf(answerTemplate, strings.Join(blocks, "\n\n"), question)
}

// Title renders the one-shot prompt used to derive a session title from the
// first question of a conversation.
func Title(question string) string {
	return fmt.Sprintf(titleTemplate, question)
}
