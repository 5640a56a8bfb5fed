package prompt

import (
	"strings"
	"testing"
)

func TestBuildMessagesDefaultPassthrough(t *testing.T) {
	obs := "Welcome to SpellingBee. Submit a word.   "
	msgs := BuildMessages(obs)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != SystemPrompt {
		t.Fatalf("system message: %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "Welcome to SpellingBee. Submit a word." {
		t.Fatalf("user message: %+v", msgs[1])
	}
}

func TestBuildMessagesBlotto(t *testing.T) {
	obs := strings.Join([]string{
		"You are Commander Alpha in a game of ColonelBlotto.",
		"=== COLONEL BLOTTO - Round 2/5 ===",
		"Units to allocate: 20",
		"Available fields: A, B, C",
	}, "\n")
	msgs := BuildMessages(obs)
	user := msgs[1].Content
	for _, want := range []string{
		"# Game Description and Rules",
		"# Game Observations",
		"# Game State",
		"you must win 2 out of 3 fields",
		"(3 out of 5)",
		"Total units MUST equal 20 exactly",
		"- Your role: Commander Alpha",
		"- Current round: Round 2 of 5",
		"- Available fields: A, B, C (3 fields total)",
		obs,
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("user message missing %q:\n%s", want, user)
		}
	}
}

func TestBuildMessagesBlottoUnknownBoard(t *testing.T) {
	msgs := BuildMessages("COLONEL BLOTTO awaits.")
	user := msgs[1].Content
	for _, want := range []string{
		"majority of fields",
		"The player who wins the most rounds",
		"Total units MUST equal your budget exactly",
		"- Your role: Commander",
		"- Your unit budget: See observation for unit count",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("user message missing %q:\n%s", want, user)
		}
	}
}

func TestBuildMessagesCodenamesSpymaster(t *testing.T) {
	obs := "You are playing Codenames, a 2v2 word deduction game.\nYou are Player 0, the Spymaster for Red team."
	user := BuildMessages(obs)[1].Content
	if !strings.Contains(user, "Since you are the Spymaster") {
		t.Fatalf("missing role line:\n%s", user)
	}
	if !strings.Contains(user, "[<word> <number>]") {
		t.Fatalf("missing spymaster format:\n%s", user)
	}
	if strings.Contains(user, "- Current clue:") {
		t.Fatalf("spymaster prompt should not carry the operative clue line:\n%s", user)
	}
}

func TestBuildMessagesCodenamesOperative(t *testing.T) {
	obs := strings.Join([]string{
		"You are playing Codenames, a 2v2 word deduction game.",
		"You are Player 1, the Operative for Blue team.",
		"Spymaster of Blue team, Player 3, submitted [ocean 3].",
	}, "\n")
	user := BuildMessages(obs)[1].Content
	for _, want := range []string{
		"Since you are the Operative",
		"- Your team: Blue",
		"- Current clue: ocean",
		"guess based on the clue: 3",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("missing %q:\n%s", want, user)
		}
	}
}

func TestBuildMessagesIPD(t *testing.T) {
	obs := strings.Join([]string{
		"You are Player 2 in a 3-player Iterated Prisoner's Dilemma.",
		"The match lasts 8 rounds.",
		"Both cooperate -> 3",
		"You cooperate, they defect -> 0",
		"[GAME] Starting Round 1. You can converse freely for the next 2 rounds.",
	}, "\n")
	user := BuildMessages(obs)[1].Content
	for _, want := range []string{
		"multiple rounds (8)",
		"You get 3 points (mutual cooperation reward)",
		"You get 0 points (sucker's payoff)",
		"opponent_id: 0 and 1",
		"Conversation Phase (Now is this phase",
		"- Your player ID: Player 2",
		"- Opponents: Players 0 and 1",
		"- Current phase: Conversation",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("missing %q:\n%s", want, user)
		}
	}
	if strings.Contains(user, "Decision Phase (Now is this phase") {
		t.Fatalf("decision phase should not be flagged current:\n%s", user)
	}
}

func TestTranscript(t *testing.T) {
	got := Transcript([]Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "usr"},
	})
	want := "###############SYSTEM###############\nsys\n###############USER###############\nusr"
	if got != want {
		t.Fatalf("got %q", got)
	}
}
