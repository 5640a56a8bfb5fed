package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mindplay/internal/agent"
	"mindplay/internal/arena"
	"mindplay/internal/config"
	"mindplay/internal/gamelog"
	"mindplay/pkg/types"
)

type fakeSession struct {
	steps  []arena.Step
	result *arena.Result
	gate   chan struct{} // when non-nil, Next blocks here after the steps

	mu        sync.Mutex
	submitted []string
	forfeited bool
	closed    bool
	i         int
}

func (s *fakeSession) Next(ctx context.Context) (*arena.Step, *arena.Result, error) {
	s.mu.Lock()
	if s.i < len(s.steps) {
		st := s.steps[s.i]
		s.i++
		s.mu.Unlock()
		return &st, nil, nil
	}
	s.mu.Unlock()
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if s.result != nil {
		return nil, s.result, nil
	}
	return nil, nil, errors.New("stream broken")
}

func (s *fakeSession) Submit(ctx context.Context, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, action)
	return nil
}

func (s *fakeSession) Forfeit(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forfeited = true
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type registration struct {
	sess *fakeSession
	err  error
}

// fakeCoord hands out queued registrations; when the queue runs dry it
// blocks like the real matchmaking endpoint does.
type fakeCoord struct {
	mu        sync.Mutex
	queue     []registration
	registers int
	pending   []*fakeSession
}

func (c *fakeCoord) Register(ctx context.Context, req arena.RegisterRequest) (*arena.Match, error) {
	c.mu.Lock()
	c.registers++
	if len(c.queue) == 0 {
		c.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	reg := c.queue[0]
	c.queue = c.queue[1:]
	if reg.err != nil {
		c.mu.Unlock()
		return nil, reg.err
	}
	c.pending = append(c.pending, reg.sess)
	c.mu.Unlock()
	return &arena.Match{MatchInfo: types.MatchInfo{
		GameURL:        "wss://games.test/g/1",
		EnvID:          "Codenames-v0",
		MatchedEnvName: "Codenames-v0",
	}}, nil
}

func (c *fakeCoord) Join(ctx context.Context, match *arena.Match) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, errors.New("no session queued")
	}
	s := c.pending[0]
	c.pending = c.pending[1:]
	return s, nil
}

func (c *fakeCoord) registerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registers
}

type fakePlayer struct{}

func (fakePlayer) Act(ctx context.Context, observation string) (agent.Response, error) {
	if ctx.Err() != nil {
		return agent.Response{}, ctx.Err()
	}
	return agent.Response{Completion: "[move]", Action: agent.Action{Text: "[move]"}}, nil
}

type fakeSink struct {
	mu   sync.Mutex
	recs []gamelog.Record
}

func (s *fakeSink) Write(rec gamelog.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return "game.json", nil
}

func (s *fakeSink) records() []gamelog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gamelog.Record, len(s.recs))
	copy(out, s.recs)
	return out
}

func testConfig(maxGames int) config.Config {
	cfg := config.Default()
	cfg.TeamHash = "deadbeef"
	cfg.Tracks = string(types.TrackGeneralization)
	cfg.MaxGamesPerTrack = maxGames
	return cfg
}

func newTestRunner(t *testing.T, cfg config.Config, coord Coordinator, sink RecordSink) *Runner {
	t.Helper()
	r, err := New(cfg, coord, fakePlayer{}, sink, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.retryPause = 5 * time.Millisecond
	r.closeGrace = time.Second
	return r
}

func startRunner(t *testing.T, r *Runner) chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.Run(context.Background()); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	return done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop in time")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func oneStepSession() *fakeSession {
	return &fakeSession{
		steps:  []arena.Step{{PlayerID: 0, Observation: "[GAME] Make a move."}},
		result: &arena.Result{Rewards: map[string]float64{"0": 1}},
	}
}

func TestRunPlaysToGameCap(t *testing.T) {
	coord := &fakeCoord{queue: []registration{
		{sess: oneStepSession()},
		{sess: oneStepSession()},
	}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(2), coord, sink)

	waitDone(t, startRunner(t, r))

	if got := r.Phase(); got != PhaseStopped {
		t.Fatalf("phase = %q, want %q", got, PhaseStopped)
	}
	recs := sink.records()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.Outcome != types.OutcomeCompleted {
			t.Fatalf("outcome = %q, want completed", rec.Outcome)
		}
		if len(rec.Steps) != 1 || rec.Steps[0].Action.Action.Text != "[move]" {
			t.Fatalf("unexpected steps: %+v", rec.Steps)
		}
		if rec.EndTime == nil || rec.EndTime.Before(rec.StartTime) {
			t.Fatalf("bad end time: %+v", rec.EndTime)
		}
	}
	if n := coord.registerCount(); n != 2 {
		t.Fatalf("registered %d times, want 2", n)
	}
}

func TestDrainLetsGameFinish(t *testing.T) {
	sess := &fakeSession{
		steps:  []arena.Step{{Observation: "[GAME] Make a move."}},
		result: &arena.Result{Rewards: map[string]float64{"0": 1}},
		gate:   make(chan struct{}),
	}
	coord := &fakeCoord{queue: []registration{{sess: sess}}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(0), coord, sink)

	done := startRunner(t, r)
	waitFor(t, "game in progress", func() bool {
		st := r.Status()
		return len(st.Tracks) == 1 && st.Tracks[0].InGame
	})

	r.Interrupt()
	if got := r.Phase(); got != PhaseDrainRequested {
		t.Fatalf("phase = %q, want %q", got, PhaseDrainRequested)
	}

	// The drained game is still allowed to reach its natural end.
	close(sess.gate)
	waitDone(t, done)

	recs := sink.records()
	if len(recs) != 1 || recs[0].Outcome != types.OutcomeCompleted {
		t.Fatalf("records = %+v, want one completed game", recs)
	}
	if sess.forfeited {
		t.Fatal("drain must not forfeit the in-progress game")
	}
	if n := coord.registerCount(); n != 1 {
		t.Fatalf("registered %d times after drain, want 1", n)
	}
}

func TestDrainWhileIdleStopsPromptly(t *testing.T) {
	coord := &fakeCoord{} // empty queue: Register blocks like real matchmaking
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(0), coord, sink)

	done := startRunner(t, r)
	waitFor(t, "worker waiting for a match", func() bool { return coord.registerCount() == 1 })

	r.Interrupt()
	waitDone(t, done)

	if got := r.Phase(); got != PhaseStopped {
		t.Fatalf("phase = %q, want %q", got, PhaseStopped)
	}
	if recs := sink.records(); len(recs) != 0 {
		t.Fatalf("no game was played, got %d records", len(recs))
	}
}

func TestForcedStopTerminatesGame(t *testing.T) {
	sess := &fakeSession{
		steps: []arena.Step{{Observation: "[GAME] Make a move."}},
		gate:  make(chan struct{}), // never closed: game hangs until forced stop
	}
	coord := &fakeCoord{queue: []registration{{sess: sess}}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(0), coord, sink)

	done := startRunner(t, r)
	waitFor(t, "game in progress", func() bool {
		st := r.Status()
		return len(st.Tracks) == 1 && st.Tracks[0].InGame
	})

	r.Interrupt()
	r.Interrupt()
	waitDone(t, done)

	recs := sink.records()
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Outcome != types.OutcomeTerminated {
		t.Fatalf("outcome = %q, want terminated", recs[0].Outcome)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.forfeited {
		t.Fatal("forced stop should forfeit the abandoned game")
	}
	if !sess.closed {
		t.Fatal("forced stop should close the session")
	}
}

func TestInterruptAfterStoppedIsNoop(t *testing.T) {
	coord := &fakeCoord{}
	r := newTestRunner(t, testConfig(0), coord, &fakeSink{})

	done := startRunner(t, r)
	waitFor(t, "worker waiting for a match", func() bool { return coord.registerCount() == 1 })
	r.Interrupt()
	waitDone(t, done)

	for i := 0; i < 3; i++ {
		r.Interrupt()
	}
	if got := r.Phase(); got != PhaseStopped {
		t.Fatalf("phase = %q, want %q", got, PhaseStopped)
	}
}

func TestInterruptBeforeRunIsReplayed(t *testing.T) {
	coord := &fakeCoord{queue: []registration{{sess: oneStepSession()}}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(0), coord, sink)

	// The signal lands before Run builds the stop contexts.
	r.Interrupt()
	waitDone(t, startRunner(t, r))

	if n := coord.registerCount(); n != 0 {
		t.Fatalf("registered %d times after pre-start stop, want 0", n)
	}
	if recs := sink.records(); len(recs) != 0 {
		t.Fatalf("played %d games after pre-start stop, want 0", len(recs))
	}
	if got := r.Phase(); got != PhaseStopped {
		t.Fatalf("phase = %q, want %q", got, PhaseStopped)
	}
}

func TestRegistrationRejectedStopsWorker(t *testing.T) {
	coord := &fakeCoord{queue: []registration{
		{err: arena.ErrRegistrationFailed("Model registration failed")},
	}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(0), coord, sink)

	waitDone(t, startRunner(t, r))

	if recs := sink.records(); len(recs) != 0 {
		t.Fatalf("rejected registration should play no games, got %d", len(recs))
	}
	if got := r.Phase(); got != PhaseStopped {
		t.Fatalf("phase = %q, want %q", got, PhaseStopped)
	}
}

func TestGameErrorContinuesLoop(t *testing.T) {
	broken := &fakeSession{} // Next fails immediately
	coord := &fakeCoord{queue: []registration{
		{sess: broken},
		{sess: oneStepSession()},
	}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(1), coord, sink)

	waitDone(t, startRunner(t, r))

	recs := sink.records()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Outcome != types.OutcomeError {
		t.Fatalf("first outcome = %q, want error", recs[0].Outcome)
	}
	if recs[1].Outcome != types.OutcomeCompleted {
		t.Fatalf("second outcome = %q, want completed", recs[1].Outcome)
	}
	st := r.Status()
	if st.Tracks[0].Errored != 1 || st.Tracks[0].Completed != 1 {
		t.Fatalf("track status = %+v", st.Tracks[0])
	}
}

func TestRateLimitedRegistrationRetries(t *testing.T) {
	coord := &fakeCoord{queue: []registration{
		{err: &arena.RateLimitError{RetryAfter: time.Millisecond}},
		{sess: oneStepSession()},
	}}
	sink := &fakeSink{}
	r := newTestRunner(t, testConfig(1), coord, sink)

	waitDone(t, startRunner(t, r))

	if n := coord.registerCount(); n != 2 {
		t.Fatalf("registered %d times, want 2", n)
	}
	recs := sink.records()
	if len(recs) != 1 || recs[0].Outcome != types.OutcomeCompleted {
		t.Fatalf("records = %+v, want one completed game", recs)
	}
}
