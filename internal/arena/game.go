package arena

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
)

// frame is the JSON envelope exchanged on the game socket. Cmd selects
// which of the remaining fields are meaningful.
type frame struct {
	Cmd         string             `json:"cmd"`
	PlayerID    int                `json:"player_id,omitempty"`
	Observation string             `json:"observation,omitempty"`
	Action      string             `json:"action,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	StepInfo    map[string]any     `json:"step_info,omitempty"`
	Rewards     map[string]float64 `json:"rewards,omitempty"`
	GameInfo    map[string]any     `json:"game_info,omitempty"`
}

const (
	cmdObservation = "observation"
	cmdAction      = "action"
	cmdPing        = "ping"
	cmdPong        = "pong"
	cmdGameOver    = "game_over"
	cmdForfeit     = "forfeit"
)

// Step is one observation handed to the agent.
type Step struct {
	PlayerID    int
	Observation string
	StepInfo    map[string]any
}

// Result is the terminal frame of a game.
type Result struct {
	Rewards  map[string]float64
	GameInfo map[string]any
}

// Game is a live game session. Not safe for concurrent use; the runner
// drives one game at a time.
type Game struct {
	conn  *websocket.Conn
	match *Match
	log   zerolog.Logger
}

// Match returns the matchmaking info this session belongs to.
func (g *Game) Match() *Match { return g.match }

// Next blocks until the coordinator sends the next observation or the game
// ends. Exactly one of Step/Result is non-nil on success. Pings are
// answered inline.
func (g *Game) Next(ctx context.Context) (*Step, *Result, error) {
	for {
		var f frame
		if err := wsjson.Read(ctx, g.conn, &f); err != nil {
			return nil, nil, fmt.Errorf("read game frame: %w", err)
		}
		switch f.Cmd {
		case cmdObservation:
			return &Step{PlayerID: f.PlayerID, Observation: f.Observation, StepInfo: f.StepInfo}, nil, nil
		case cmdGameOver:
			return nil, &Result{Rewards: f.Rewards, GameInfo: f.GameInfo}, nil
		case cmdPing:
			if err := wsjson.Write(ctx, g.conn, frame{Cmd: cmdPong}); err != nil {
				return nil, nil, fmt.Errorf("answer ping: %w", err)
			}
		default:
			g.log.Debug().Str("cmd", f.Cmd).Msg("ignoring unknown game frame")
		}
	}
}

// Submit sends the agent's action for the current observation.
func (g *Game) Submit(ctx context.Context, action string) error {
	if err := wsjson.Write(ctx, g.conn, frame{Cmd: cmdAction, Action: action}); err != nil {
		return fmt.Errorf("submit action: %w", err)
	}
	return nil
}

// Forfeit tells the coordinator this side is abandoning the game. Used on
// forced shutdown so the termination is explicit instead of a silent
// disconnect.
func (g *Game) Forfeit(ctx context.Context, reason string) error {
	if err := wsjson.Write(ctx, g.conn, frame{Cmd: cmdForfeit, Reason: reason}); err != nil {
		return fmt.Errorf("send forfeit: %w", err)
	}
	return nil
}

// Close closes the game socket.
func (g *Game) Close() error {
	return g.conn.Close(websocket.StatusNormalClosure, "")
}
