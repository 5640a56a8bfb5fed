package types

// Track identifies a competition category on the coordinator.
type Track string

const (
	TrackGeneralization  Track = "Generalization"
	TrackSocialDetection Track = "Social Detection"
)

// AllTracks lists every track a submission can enter.
var AllTracks = []Track{TrackGeneralization, TrackSocialDetection}

// ParseTracks resolves a --tracks selector into concrete tracks.
// Accepts a single track name or "All".
func ParseTracks(s string) ([]Track, bool) {
	switch s {
	case "All":
		out := make([]Track, len(AllTracks))
		copy(out, AllTracks)
		return out, true
	case string(TrackGeneralization):
		return []Track{TrackGeneralization}, true
	case string(TrackSocialDetection):
		return []Track{TrackSocialDetection}, true
	}
	return nil, false
}

// Outcome records how a game ended from this client's point of view.
type Outcome string

const (
	// OutcomeCompleted means the game ran to its natural end and the result
	// was reported to the coordinator.
	OutcomeCompleted Outcome = "completed"
	// OutcomeTerminated means the game was cut short by a forced shutdown
	// and reported as a non-completion.
	OutcomeTerminated Outcome = "terminated"
	// OutcomeError means the game aborted on an unrecoverable error.
	OutcomeError Outcome = "error"
)

// MatchInfo describes the environment the coordinator matched us into.
type MatchInfo struct {
	// URL of the live game on the coordinator.
	// example: https://games.example.org/g/12345
	GameURL string `json:"game_url"`
	// Environment identifier string, e.g. "Codenames-v0".
	EnvID string `json:"env_id"`
	// Numeric environment id assigned by the coordinator.
	EnvironmentID int `json:"environment_id"`
	// Concrete environment name after matchmaking.
	MatchedEnvName string `json:"matched_env_name"`
}

// TrackStatus summarizes one track worker for GET /status.
type TrackStatus struct {
	Track Track `json:"track"`
	// Games finished so far, by outcome.
	Completed  int `json:"completed"`
	Terminated int `json:"terminated"`
	Errored    int `json:"errored"`
	// Whether a game is being played right now.
	InGame bool `json:"in_game"`
	// Environment name of the game in progress, empty when idle.
	CurrentEnv string `json:"current_env,omitempty"`
}

// StatusResponse is the payload of GET /status on the local status endpoint.
type StatusResponse struct {
	// Lifecycle phase: running, drain_requested, or stopped.
	Phase string `json:"phase"`
	// Public display name this submission registered under.
	PublicModelName string `json:"public_model_name"`
	// Per-track worker status.
	Tracks []TrackStatus `json:"tracks"`
}

// TrackSummary aggregates recorded games for one track, for stats output.
type TrackSummary struct {
	Track      Track   `json:"track"`
	Games      int     `json:"games"`
	Completed  int     `json:"completed"`
	Terminated int     `json:"terminated"`
	Errored    int     `json:"errored"`
	MeanReward float64 `json:"mean_reward"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
