package prompt

import (
	"strconv"
	"strings"
	"text/template"
)

// Message is a single chat message in the order it is sent to the model.
type Message struct {
	Role    string
	Content string
}

// BuildMessages converts an observation into the system+user message pair
// for the chat completions call. Recognized games get a game-specific user
// message; everything else passes the observation through untouched.
func BuildMessages(observation string) []Message {
	observation = Normalize(observation)
	user := observation
	switch {
	case IsColonelBlotto(observation):
		user = blottoUserMessage(observation)
	case IsCodenames(observation):
		user = codenamesUserMessage(observation)
	case IsThreePlayerIPD(observation):
		user = ipdUserMessage(observation)
	}
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: strings.TrimSpace(user)},
	}
}

// Transcript formats messages into a single loggable prompt string.
func Transcript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(strings.Repeat("#", 15))
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(strings.Repeat("#", 15))
		b.WriteByte('\n')
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

type userData struct {
	Rules        string
	Observations string
	State        string
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return ""
	}
	return strings.TrimSpace(b.String())
}

func composeUser(rules, observation, state string) string {
	return render(userTmpl, userData{
		Rules:        rules,
		Observations: strings.TrimSpace(observation),
		State:        state,
	})
}

func blottoUserMessage(observation string) string {
	ctx := ExtractBlottoContext(observation)
	data := blottoData{
		Role:         ctx.Role,
		CurrentRound: ctx.CurrentRound,
		TotalRounds:  ctx.TotalRounds,
		RoundsToWin:  ctx.TotalRounds/2 + 1,
		Units:        ctx.Units,
		Fields:       ctx.Fields,
		NumFields:    len(ctx.Fields),
		FieldsToWin:  len(ctx.Fields)/2 + 1,
	}
	return composeUser(render(blottoRulesTmpl, data), observation, render(blottoStateTmpl, data))
}

func codenamesUserMessage(observation string) string {
	ctx := ExtractCodenamesContext(observation)
	data := codenamesData{
		Role:           ctx.Role,
		Team:           ctx.Team,
		LastClueWord:   ctx.LastClueWord,
		LastClueNumber: ctx.LastClueNumber,
	}
	return composeUser(render(codenamesRulesTmpl, data), observation, render(codenamesStateTmpl, data))
}

func ipdUserMessage(observation string) string {
	ctx := ExtractIPDContext(observation)
	data := ipdData{
		NumRounds:         ctx.NumRounds,
		ConversationTurns: ctx.ConversationTurns,
		Phase:             string(ctx.Phase),
		PhaseTitle:        capitalize(string(ctx.Phase)),
		CurrentRound:      ctx.CurrentRound,
		R:                 intStr(ctx.R),
		T:                 intStr(ctx.T),
		S:                 intStr(ctx.S),
		P:                 intStr(ctx.P),
	}
	if ctx.PlayerID != nil {
		data.PlayerID = strconv.Itoa(*ctx.PlayerID)
	}
	if len(ctx.Opponents) == 2 {
		data.Opponent0 = strconv.Itoa(ctx.Opponents[0])
		data.Opponent1 = strconv.Itoa(ctx.Opponents[1])
	}
	return composeUser(render(ipdRulesTmpl, data), observation, render(ipdStateTmpl, data))
}

func intStr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
