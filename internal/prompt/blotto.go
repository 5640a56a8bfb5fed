package prompt

import (
	"regexp"
	"strconv"
	"strings"
)

// BlottoContext holds the dynamic game details scraped from a Colonel
// Blotto observation. Zero values mean the detail was absent.
type BlottoContext struct {
	Role         string
	Units        int
	Fields       []string
	CurrentRound int
	TotalRounds  int
}

var (
	blottoRole   = regexp.MustCompile(`(?i)You are\s+(.*?)\s+in a game of ColonelBlotto\.`)
	blottoUnits  = regexp.MustCompile(`(?i)Units to allocate:\s*(\d+)`)
	blottoFields = regexp.MustCompile(`(?i)Available fields:\s*([A-Za-z](?:\s*,\s*[A-Za-z])*)`)
	blottoRound  = regexp.MustCompile(`(?i)COLONEL\s+BLOTTO\s*-\s*Round\s*(\d+)/(\d+)`)
)

// ExtractBlottoContext scrapes role, unit budget, field list, and round
// progress from the observation. Boards repeat each round; the most recent
// occurrence wins.
func ExtractBlottoContext(observation string) BlottoContext {
	var ctx BlottoContext
	if m := blottoRole.FindStringSubmatch(observation); m != nil {
		ctx.Role = strings.TrimSpace(m[1])
	}
	if ms := blottoUnits.FindAllStringSubmatch(observation, -1); len(ms) > 0 {
		if n, err := strconv.Atoi(ms[len(ms)-1][1]); err == nil {
			ctx.Units = n
		}
	}
	if ms := blottoFields.FindAllStringSubmatch(observation, -1); len(ms) > 0 {
		for _, f := range strings.Split(ms[len(ms)-1][1], ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				ctx.Fields = append(ctx.Fields, strings.ToUpper(f))
			}
		}
	}
	if ms := blottoRound.FindAllStringSubmatch(observation, -1); len(ms) > 0 {
		last := ms[len(ms)-1]
		cur, err1 := strconv.Atoi(last[1])
		tot, err2 := strconv.Atoi(last[2])
		if err1 == nil && err2 == nil {
			ctx.CurrentRound, ctx.TotalRounds = cur, tot
		}
	}
	return ctx
}
