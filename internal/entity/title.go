package entity

import "strings"

const (
	// FallbackSessionTitle is used when title generation fails or produces
	// nothing usable.
	FallbackSessionTitle = "Document Chat"

	maxSessionTitleChars = 50
)

// SanitizeSessionTitle normalizes model output into a session title: quotes
// stripped, whitespace collapsed, capped at 50 characters with an ellipsis.
func SanitizeSessionTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	title = strings.Join(strings.Fields(title), " ")

	if title == "" {
		return FallbackSessionTitle
	}

	runes := []rune(title)
	if len(runes) > maxSessionTitleChars {
		title = string(runes[:maxSessionTitleChars-3]) + "..."
	}

	return title
}
