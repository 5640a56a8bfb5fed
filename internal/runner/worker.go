package runner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mindplay/internal/arena"
	"mindplay/internal/gamelog"
	"mindplay/pkg/types"
)

// worker plays games on one track until the drain context ends, the game
// cap is reached, or registration is rejected. drainCtx bounds the wait for
// a new match; hardCtx bounds the game itself, so a drain request never
// cuts a running game short.
func (r *Runner) worker(drainCtx, hardCtx context.Context, ts *trackState) {
	log := r.log.With().Str("track", string(ts.track)).Logger()
	for {
		if max := r.cfg.MaxGamesPerTrack; max > 0 && r.gamesCompleted(ts) >= max {
			log.Info().Int("games", max).Msg("game cap reached")
			return
		}
		if drainCtx.Err() != nil {
			log.Info().Msg("stop requested, not registering for a new game")
			return
		}

		match, err := r.coord.Register(drainCtx, arena.RegisterRequest{
			ModelName:        r.cfg.PublicModelName,
			ModelDescription: r.cfg.PublicModelDescription,
			Track:            ts.track,
			SmallCategory:    r.cfg.SmallCategory,
			TeamHash:         r.cfg.TeamHash,
		})
		if err != nil {
			if drainCtx.Err() != nil {
				log.Info().Msg("stop requested while waiting for a match")
				return
			}
			if arena.IsRegistrationFailed(err) {
				log.Error().Err(err).Msg("model registration rejected, stopping track")
				return
			}
			pause := r.retryPause
			var rl *arena.RateLimitError
			if errors.As(err, &rl) && rl.RetryAfter > 0 {
				pause = rl.RetryAfter
			}
			log.Warn().Err(err).Dur("pause", pause).Msg("matchmaking failed, retrying")
			if !sleepCtx(drainCtx, pause) {
				return
			}
			continue
		}

		outcome := r.playGame(hardCtx, ts, match, log)
		r.countOutcome(ts, outcome)
		gamesTotal.WithLabelValues(string(ts.track), string(outcome)).Inc()
	}
}

// playGame drives one game to an outcome and persists the record. Errors
// while recording or closing never change the outcome and never block the
// worker.
func (r *Runner) playGame(ctx context.Context, ts *trackState, match *arena.Match, log zerolog.Logger) types.Outcome {
	start := time.Now().UTC()
	rec := gamelog.Record{
		PublicModelName:        r.cfg.PublicModelName,
		PublicModelDescription: r.cfg.PublicModelDescription,
		Track:                  ts.track,
		SmallCategory:          r.cfg.SmallCategory,
		StartTime:              start,
		Match:                  &match.MatchInfo,
	}
	defer func() {
		end := time.Now().UTC()
		rec.EndTime = &end
		r.setInGame(ts, "", false)
		gameDuration.WithLabelValues(string(ts.track)).Observe(end.Sub(start).Seconds())
		r.persist(rec, log)
	}()

	r.setInGame(ts, match.MatchedEnvName, true)
	log = log.With().Str("env", match.MatchedEnvName).Logger()
	log.Info().Str("url", match.GameURL).Msg("joining game")

	session, err := r.coord.Join(ctx, match)
	if err != nil {
		rec.Outcome = r.failOutcome(ctx)
		log.Error().Err(err).Str("outcome", string(rec.Outcome)).Msg("join failed")
		return rec.Outcome
	}

	for {
		step, result, err := session.Next(ctx)
		if err != nil {
			rec.Outcome = r.failOutcome(ctx)
			if rec.Outcome == types.OutcomeTerminated {
				r.abandon(session, log)
			} else {
				log.Error().Err(err).Msg("game stream failed")
				_ = session.Close()
			}
			return rec.Outcome
		}
		if result != nil {
			rec.Outcome = types.OutcomeCompleted
			rec.Rewards = result.Rewards
			rec.GameInfo = result.GameInfo
			_ = session.Close()
			log.Info().Int("steps", len(rec.Steps)).Msg("game completed")
			return rec.Outcome
		}

		resp, err := r.player.Act(ctx, step.Observation)
		if err != nil {
			rec.Outcome = r.failOutcome(ctx)
			if rec.Outcome == types.OutcomeTerminated {
				r.abandon(session, log)
			} else {
				log.Error().Err(err).Msg("agent failed to act")
				_ = session.Close()
			}
			return rec.Outcome
		}
		rec.Steps = append(rec.Steps, gamelog.StepRecord{
			PlayerID:    step.PlayerID,
			Observation: step.Observation,
			Action:      resp,
			StepInfo:    step.StepInfo,
		})
		movesTotal.WithLabelValues(string(ts.track)).Inc()

		if err := session.Submit(ctx, resp.Action.Text); err != nil {
			rec.Outcome = r.failOutcome(ctx)
			if rec.Outcome == types.OutcomeTerminated {
				r.abandon(session, log)
			} else {
				log.Error().Err(err).Msg("submit failed")
				_ = session.Close()
			}
			return rec.Outcome
		}
	}
}

// failOutcome maps a failure to terminated when the game context was
// canceled by a forced stop, and to error otherwise.
func (r *Runner) failOutcome(ctx context.Context) types.Outcome {
	if ctx.Err() != nil {
		return types.OutcomeTerminated
	}
	return types.OutcomeError
}

// abandon tells the coordinator the game is being given up. The game
// context is already dead, so a short fresh one bounds the goodbye.
func (r *Runner) abandon(session Session, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), r.closeGrace)
	defer cancel()
	if err := session.Forfeit(ctx, "client shutting down"); err != nil {
		log.Debug().Err(err).Msg("forfeit not delivered")
	}
	_ = session.Close()
	log.Warn().Msg("game terminated by forced stop")
}

func (r *Runner) persist(rec gamelog.Record, log zerolog.Logger) {
	path, err := r.sink.Write(rec)
	if err != nil {
		log.Error().Err(err).Msg("write game log")
	}
	if r.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.closeGrace)
		defer cancel()
		if err := r.store.Insert(ctx, rec, path); err != nil {
			log.Error().Err(err).Msg("insert game result")
		}
	}
}
