// Package prompt turns raw game observations into chat messages: it
// normalizes the observation text, classifies which game is being played,
// extracts game state from the board text, and renders the game-specific
// prompt templates.
package prompt

import (
	"regexp"
	"strings"
)

var trailingWS = regexp.MustCompile(`(?m)[ \t]+$`)

// Normalize removes trailing spaces/tabs at end of lines without collapsing
// blank lines, then trims outer whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(trailingWS.ReplaceAllString(text, ""))
}
