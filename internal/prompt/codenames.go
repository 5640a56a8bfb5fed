package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CodenamesContext holds the team and the most recent clue scraped from a
// Codenames observation.
type CodenamesContext struct {
	Role           string // Spymaster or Operative
	Team           string // Red or Blue, empty if unknown
	LastClueWord   string
	LastClueNumber int
}

var (
	codenamesRole = regexp.MustCompile(`(?i)You are Player\s+\d+,\s+the\s+(Spymaster|Operative)\s+for`)
	codenamesTeam = regexp.MustCompile(`(?i)You are Player\s+\d+,\s+the\s+(Spymaster|Operative)\s+for\s+(Red|Blue)\s+team\.`)
	codenamesClue = regexp.MustCompile(`(?i)Spymaster\s+of\s+(Red|Blue)\s+team,\s+Player\s+\d+,\s+submitted\s+\[(\w+)\s+(\d+)\]\.`)
)

// CodenamesRole returns the player's role from the observation.
func CodenamesRole(observation string) (string, error) {
	m := codenamesRole.FindStringSubmatch(observation)
	if m == nil {
		return "", fmt.Errorf("codenames role not found in observation")
	}
	return capitalize(m[1]), nil
}

// ExtractCodenamesContext scrapes team color and the last clue. Clues are
// taken from action lines; the last clue from the player's own team is
// preferred, falling back to the last clue overall.
func ExtractCodenamesContext(observation string) CodenamesContext {
	var ctx CodenamesContext
	if role, err := CodenamesRole(observation); err == nil {
		ctx.Role = role
	}
	if m := codenamesTeam.FindStringSubmatch(observation); m != nil {
		ctx.Team = capitalize(m[2])
	}

	subs := codenamesClue.FindAllStringSubmatch(observation, -1)
	if len(subs) == 0 {
		return ctx
	}
	var sel []string
	if ctx.Team != "" {
		for i := len(subs) - 1; i >= 0; i-- {
			if strings.EqualFold(subs[i][1], ctx.Team) {
				sel = subs[i]
				break
			}
		}
	}
	if sel == nil {
		sel = subs[len(subs)-1]
	}
	ctx.LastClueWord = strings.ToLower(sel[2])
	if n, err := strconv.Atoi(sel[3]); err == nil {
		ctx.LastClueNumber = n
	}
	if ctx.Team == "" {
		ctx.Team = capitalize(sel[1])
	}
	return ctx
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
