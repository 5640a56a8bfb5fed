// Package gamelog persists game evaluation records: a JSON file per game
// for offline inspection and a sqlite results store for aggregate stats.
package gamelog

import (
	"strconv"
	"time"

	"mindplay/internal/agent"
	"mindplay/pkg/types"
)

// StepRecord is one agent turn inside a game.
type StepRecord struct {
	PlayerID    int            `json:"player_id"`
	Observation string         `json:"observation"`
	Action      agent.Response `json:"action"`
	StepInfo    map[string]any `json:"step_info,omitempty"`
}

// Record is the full evaluation log of one game.
type Record struct {
	PublicModelName        string             `json:"public_model_name"`
	PublicModelDescription string             `json:"public_model_description"`
	Track                  types.Track        `json:"track"`
	SmallCategory          bool               `json:"small_category"`
	Outcome                types.Outcome      `json:"outcome"`
	StartTime              time.Time          `json:"start_time"`
	EndTime                *time.Time         `json:"end_time,omitempty"`
	Rewards                map[string]float64 `json:"rewards,omitempty"`
	GameInfo               map[string]any     `json:"game_info,omitempty"`
	Steps                  []StepRecord       `json:"steps"`
	Match                  *types.MatchInfo   `json:"online_environment_info,omitempty"`
}

// OwnReward returns this submission's reward, keyed by the player id seen
// in the game's steps. false when the game produced no usable reward.
func (r Record) OwnReward() (float64, bool) {
	if len(r.Rewards) == 0 || len(r.Steps) == 0 {
		return 0, false
	}
	pid := strconv.Itoa(r.Steps[len(r.Steps)-1].PlayerID)
	v, ok := r.Rewards[pid]
	return v, ok
}
