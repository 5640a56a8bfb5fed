package prompt

import "regexp"

// Game names the environment a given observation belongs to. Default covers
// every environment without a dedicated prompt.
type Game string

const (
	GameDefault        Game = "Default"
	GameColonelBlotto  Game = "ColonelBlotto"
	GameCodenames      Game = "Codenames"
	GameThreePlayerIPD Game = "ThreePlayerIPD"
)

var (
	blottoCue = regexp.MustCompile(`(?is)(You are\s+.+?\s+in a game of ColonelBlotto\.|COLONEL\s+BLOTTO)`)

	codenamesCue = regexp.MustCompile(`(?i)You are playing Codenames,?\s*a 2v2 word deduction game\.`)

	// Primary signal is the initial prompt line. Fallbacks cover
	// later-round boards where the intro has scrolled away.
	ipdPrimary   = regexp.MustCompile(`(?i)You\s+are\s+Player\s+\d+\s+in\s+a\s+3-player\s+Iterated\s+Prisoner'?s\s+Dilemma`)
	ipdFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)3-player\s+Iterated\s+Prisoner'?s\s+Dilemma`),
		regexp.MustCompile(`(?i)\[\s*\d+\s+(cooperate|defect)\s*\]`),
	}
)

// IsColonelBlotto reports whether the observation is a Colonel Blotto board.
func IsColonelBlotto(observation string) bool {
	return blottoCue.MatchString(observation)
}

// IsCodenames reports whether the observation is a Codenames board.
func IsCodenames(observation string) bool {
	return codenamesCue.MatchString(observation)
}

// IsThreePlayerIPD heuristically detects the 3-player Iterated Prisoner's
// Dilemma environment.
func IsThreePlayerIPD(observation string) bool {
	if ipdPrimary.MatchString(observation) {
		return true
	}
	for _, p := range ipdFallbacks {
		if p.MatchString(observation) {
			return true
		}
	}
	return false
}

// DetectGame classifies a normalized observation. Blotto is checked first,
// then Codenames, then IPD; the first match wins.
func DetectGame(observation string) Game {
	observation = Normalize(observation)
	switch {
	case IsColonelBlotto(observation):
		return GameColonelBlotto
	case IsCodenames(observation):
		return GameCodenames
	case IsThreePlayerIPD(observation):
		return GameThreePlayerIPD
	}
	return GameDefault
}
