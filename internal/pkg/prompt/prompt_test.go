package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/futig/docqa-backend/internal/entity"
)

func TestBuildIsDeterministic(t *testing.T) {
	results := []entity.SearchResult{
		{Content: "Dogs are mammals too.", Score: 0.91},
		{Content: "Cats are mammals.", Score: 0.72},
	}

	first := Build("Are dogs mammals?", results)
	second := Build("Are dogs mammals?", results)

	assert.Equal(t, first, second)
}

func TestBuildNumbersContextInResultOrder(t *testing.T) {
	results := []entity.SearchResult{
		{Content: "first passage"},
		{Content: "second passage"},
	}

	p := Build("question?", results)

	assert.Contains(t, p, "[Context 1]:\nfirst passage")
	assert.Contains(t, p, "[Context 2]:\nsecond passage")
	assert.Less(t, strings.Index(p, "first passage"), strings.Index(p, "second passage"))
	assert.Contains(t, p, "Question: question?")
}

func TestBuildInstructsContextOnlyAnswers(t *testing.T) {
	p := Build("q", nil)

	assert.Contains(t, p, "If the answer cannot be found in the context, say so clearly.")
}

func TestTitleEmbedsQuestion(t *testing.T) {
	p := Title("What is the warranty period?")

	assert.Contains(t, p, `"What is the warranty period?"`)
	assert.Contains(t, p, "max 6 words")
}
