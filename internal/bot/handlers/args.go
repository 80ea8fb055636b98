package handlers

import "strings"

// commandArgs returns the text following the command itself, trimmed.
// "/note Buy milk" -> "Buy milk"; "/note@somebot Buy milk" -> "Buy milk".
func commandArgs(text string) string {
	parts := strings.SplitN(text, " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// displayName picks the best advisory name for a Telegram user.
func displayName(username, firstName string) string {
	if username != "" {
		return username
	}
	return firstName
}
