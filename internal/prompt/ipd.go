package prompt

import (
	"regexp"
	"strconv"
)

// IPDPhase is the current phase of a 3-player IPD round.
type IPDPhase string

const (
	IPDConversation IPDPhase = "conversation"
	IPDDecision     IPDPhase = "decision"
)

// IPDContext holds the state scraped from a 3-player Iterated Prisoner's
// Dilemma observation. Pointer fields distinguish "absent" from zero:
// player ids and the sucker payoff are legitimately 0.
type IPDContext struct {
	PlayerID          *int
	NumRounds         int
	ConversationTurns int
	Phase             IPDPhase
	CurrentRound      int
	// Payoffs in the conventional naming: R reward, T temptation,
	// S sucker, P punishment.
	R, T, S, P *int
	Opponents  []int
}

var (
	ipdPlayerID   = regexp.MustCompile(`(?i)You\s+are\s+Player\s+(\d+)\s+in\s+a\s+3-player\s+Iterated\s+Prisoner'?s\s+Dilemma`)
	ipdNumRounds  = regexp.MustCompile(`(?i)The\s+match\s+lasts\s+(\d+)\s+rounds`)
	ipdConvBullet = regexp.MustCompile(`(?i)•\s*(\d+)\s+free-chat\s+turns`)
	ipdConvBoard  = regexp.MustCompile(`(?i)converse\s+freely\s+for\s+the\s+next\s+(\d+)\s+rounds`)

	ipdDecisionHint = regexp.MustCompile(`(?im)^\[GAME\][^\n]*submit your decisions`)
	ipdConvHint     = regexp.MustCompile(`(?im)^\[GAME\][^\n]*You can converse freely`)
	ipdDecisionTail = regexp.MustCompile(`(?i)\[\s*(\d+)\s+(cooperate|defect)\s*\]`)

	ipdRoundStart   = regexp.MustCompile(`(?i)Starting\s+Round\s+(\d+)`)
	ipdRoundResults = regexp.MustCompile(`(?i)###\s*Round\s+(\d+)\s*-\s*Results`)

	ipdPayoffCC = regexp.MustCompile(`(?i)Both\s+cooperate\s*->\s*(\d+)`)
	ipdPayoffDD = regexp.MustCompile(`(?i)Both\s+defect\s*->\s*(\d+)`)
	ipdPayoffT  = regexp.MustCompile(`(?i)You\s+defect,\s*they\s+cooperate\s*->\s*(\d+)`)
	ipdPayoffS  = regexp.MustCompile(`(?i)You\s+cooperate,\s*they\s+defect\s*->\s*(\d+)`)
)

// ExtractIPDContext scrapes player id, round progress, phase, and payoffs.
func ExtractIPDContext(observation string) IPDContext {
	ctx := IPDContext{Phase: ipdPhase(observation)}

	if m := ipdPlayerID.FindStringSubmatch(observation); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ctx.PlayerID = &n
			if n >= 0 && n <= 2 {
				for pid := 0; pid <= 2; pid++ {
					if pid != n {
						ctx.Opponents = append(ctx.Opponents, pid)
					}
				}
			}
		}
	}
	if m := ipdNumRounds.FindStringSubmatch(observation); m != nil {
		ctx.NumRounds, _ = strconv.Atoi(m[1])
	}
	if m := ipdConvBullet.FindStringSubmatch(observation); m != nil {
		ctx.ConversationTurns, _ = strconv.Atoi(m[1])
	} else if m := ipdConvBoard.FindStringSubmatch(observation); m != nil {
		ctx.ConversationTurns, _ = strconv.Atoi(m[1])
	}
	ctx.CurrentRound = ipdCurrentRound(observation)

	ctx.R = grabInt(ipdPayoffCC, observation)
	ctx.P = grabInt(ipdPayoffDD, observation)
	ctx.T = grabInt(ipdPayoffT, observation)
	ctx.S = grabInt(ipdPayoffS, observation)
	return ctx
}

// ipdPhase determines the current phase from the LAST phase hint in the
// observation stream; when no hint is present, decision tokens near the end
// of the text imply the decision phase.
func ipdPhase(observation string) IPDPhase {
	decLocs := ipdDecisionHint.FindAllStringIndex(observation, -1)
	convLocs := ipdConvHint.FindAllStringIndex(observation, -1)

	if len(decLocs) > 0 || len(convLocs) > 0 {
		decLast, convLast := -1, -1
		if len(decLocs) > 0 {
			decLast = decLocs[len(decLocs)-1][0]
		}
		if len(convLocs) > 0 {
			convLast = convLocs[len(convLocs)-1][0]
		}
		if decLast > convLast {
			return IPDDecision
		}
		return IPDConversation
	}

	tail := observation
	if len(tail) > 1000 {
		tail = tail[len(tail)-1000:]
	}
	if ipdDecisionTail.MatchString(tail) {
		return IPDDecision
	}
	return IPDConversation
}

func ipdCurrentRound(observation string) int {
	best, bestPos := 0, -1
	for _, re := range []*regexp.Regexp{ipdRoundStart, ipdRoundResults} {
		for _, loc := range re.FindAllStringSubmatchIndex(observation, -1) {
			if loc[0] > bestPos {
				if n, err := strconv.Atoi(observation[loc[2]:loc[3]]); err == nil {
					best, bestPos = n, loc[0]
				}
			}
		}
	}
	return best
}

func grabInt(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
