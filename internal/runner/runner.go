package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mindplay/internal/agent"
	"mindplay/internal/arena"
	"mindplay/internal/config"
	"mindplay/internal/gamelog"
	"mindplay/pkg/types"
)

// Coordinator hands out match assignments and joins game sessions.
type Coordinator interface {
	Register(ctx context.Context, req arena.RegisterRequest) (*arena.Match, error)
	Join(ctx context.Context, match *arena.Match) (Session, error)
}

// Session is one live game on the coordinator.
type Session interface {
	Next(ctx context.Context) (*arena.Step, *arena.Result, error)
	Submit(ctx context.Context, action string) error
	Forfeit(ctx context.Context, reason string) error
	Close() error
}

// Player produces an action for an observation.
type Player interface {
	Act(ctx context.Context, observation string) (agent.Response, error)
}

// RecordSink persists a finished game record and returns where it went.
type RecordSink interface {
	Write(rec gamelog.Record) (string, error)
}

// ResultSink keeps an indexable row per game for later aggregation.
type ResultSink interface {
	Insert(ctx context.Context, rec gamelog.Record, logPath string) error
}

type trackState struct {
	track      types.Track
	completed  int
	terminated int
	errored    int
	inGame     bool
	currentEnv string
}

// Runner plays games on every selected track until stopped.
//
// Stop contract: the first Interrupt switches to drain_requested, which
// aborts the wait for a new match but lets an in-progress game run to its
// natural end. The second Interrupt cancels the game context outright; the
// abandoned game is recorded as terminated, never as completed. Further
// interrupts are no-ops.
type Runner struct {
	cfg    config.Config
	coord  Coordinator
	player Player
	sink   RecordSink
	store  ResultSink // optional
	log    zerolog.Logger

	retryPause time.Duration
	closeGrace time.Duration

	mu         sync.Mutex
	phase      Phase
	interrupts int
	tracks     []*trackState
	drainStop  context.CancelFunc
	hardStop   context.CancelFunc
}

// New builds a Runner for the tracks selected in cfg. store may be nil.
func New(cfg config.Config, coord Coordinator, player Player, sink RecordSink, store ResultSink, log zerolog.Logger) (*Runner, error) {
	tracks := cfg.SelectedTracks()
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks selected")
	}
	r := &Runner{
		cfg:        cfg,
		coord:      coord,
		player:     player,
		sink:       sink,
		store:      store,
		log:        log,
		retryPause: time.Second,
		closeGrace: 5 * time.Second,
		phase:      PhaseRunning,
	}
	for _, t := range tracks {
		r.tracks = append(r.tracks, &trackState{track: t})
	}
	return r, nil
}

// Run plays until every worker exits, then returns. It always leaves the
// runner in the stopped phase, even when a worker failed.
func (r *Runner) Run(ctx context.Context) error {
	hardCtx, hardStop := context.WithCancel(ctx)
	drainCtx, drainStop := context.WithCancel(hardCtx)
	defer hardStop()
	defer drainStop()

	r.mu.Lock()
	r.hardStop = hardStop
	r.drainStop = drainStop
	pending := r.interrupts
	r.mu.Unlock()
	// Signals that arrived before the contexts existed still count.
	if pending >= 1 {
		drainStop()
	}
	if pending >= 2 {
		hardStop()
	}

	var wg sync.WaitGroup
	for _, ts := range r.tracks {
		wg.Add(1)
		go func(ts *trackState) {
			defer wg.Done()
			r.worker(drainCtx, hardCtx, ts)
		}(ts)
	}
	wg.Wait()

	r.mu.Lock()
	r.phase = PhaseStopped
	r.mu.Unlock()
	r.log.Info().Msg("all track workers stopped")
	return nil
}

// Interrupt advances the shutdown machine by one signal. The first call
// requests a drain, the second forces termination, later calls do nothing.
func (r *Runner) Interrupt() {
	r.mu.Lock()
	r.interrupts++
	n := r.interrupts
	if n == 1 && r.phase == PhaseRunning {
		r.phase = PhaseDrainRequested
	}
	drainStop := r.drainStop
	hardStop := r.hardStop
	r.mu.Unlock()

	switch n {
	case 1:
		r.log.Info().Msg("stop requested, letting in-progress games finish")
		if drainStop != nil {
			drainStop()
		}
	case 2:
		r.log.Warn().Msg("forced stop, terminating in-progress games")
		if hardStop != nil {
			hardStop()
		}
	default:
		r.log.Debug().Int("count", n).Msg("interrupt ignored, already stopping")
	}
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Status snapshots the runner for the status endpoint.
func (r *Runner) Status() types.StatusResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp := types.StatusResponse{
		Phase:           string(r.phase),
		PublicModelName: r.cfg.PublicModelName,
	}
	for _, ts := range r.tracks {
		resp.Tracks = append(resp.Tracks, types.TrackStatus{
			Track:      ts.track,
			Completed:  ts.completed,
			Terminated: ts.terminated,
			Errored:    ts.errored,
			InGame:     ts.inGame,
			CurrentEnv: ts.currentEnv,
		})
	}
	return resp
}

func (r *Runner) setInGame(ts *trackState, env string, in bool) {
	r.mu.Lock()
	ts.inGame = in
	ts.currentEnv = env
	r.mu.Unlock()
}

func (r *Runner) countOutcome(ts *trackState, outcome types.Outcome) {
	r.mu.Lock()
	switch outcome {
	case types.OutcomeCompleted:
		ts.completed++
	case types.OutcomeTerminated:
		ts.terminated++
	default:
		ts.errored++
	}
	r.mu.Unlock()
}

func (r *Runner) gamesCompleted(ts *trackState) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ts.completed
}

// sleepCtx waits for d and reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
