package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"mindplay/internal/agent"
	"mindplay/internal/arena"
	"mindplay/internal/config"
	"mindplay/internal/gamelog"
	"mindplay/internal/runner"
	"mindplay/internal/statusapi"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play games on the competition coordinator until stopped",
		Long: `Play registers on the selected tracks and plays matched games in a loop,
relaying observations to the inference server and submitting its moves.

Stop contract: the first SIGINT/SIGTERM lets an in-progress game finish and
then exits; a second signal terminates the game immediately and reports it
as a non-completion.`,
		RunE: runPlay,
	}
	fl := cmd.Flags()
	fl.String("config", "", "Config file (.toml, .yaml, or .json)")
	fl.String("model-name", "", "Model id served by the inference server")
	fl.String("base-url", "", "Inference server API root, e.g. http://127.0.0.1:8000/v1/")
	fl.String("api-key", "", "API key for the inference server (placeholder when auth is off)")
	fl.String("coordinator-url", "", "Game coordinator base URL (default: public endpoint)")
	fl.String("public-model-name", "", "Public display name for the submission")
	fl.String("public-model-description", "", "Public description for the submission")
	fl.String("tracks", "", "Track to enter: Generalization, Social Detection, or All")
	fl.Bool("small-category", true, "Register in the small-model category")
	fl.String("team-hash", "", "Team credential issued by the competition (required)")
	fl.String("max-games-per-track", "none", "Stop a track after N games (integer > 0 or 'none')")
	fl.String("logs-dir", "", "Directory for per-game JSON logs")
	fl.String("results-db", "", "SQLite results database path (empty disables)")
	fl.String("status-addr", "", "Local status endpoint address, e.g. 127.0.0.1:6060 (empty disables)")
	fl.String("log-level", "", "Log level: debug|info|warn|error")
	return cmd
}

// buildPlayConfig layers defaults <- config file <- env <- flags.
func buildPlayConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	config.LoadDotenv()

	fl := cmd.Flags()
	if path, _ := fl.GetString("config"); path != "" {
		if err := config.Load(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	setString := func(flag string, dst *string) error {
		if fl.Changed(flag) {
			v, err := fl.GetString(flag)
			if err != nil {
				return err
			}
			*dst = v
		}
		return nil
	}
	for flag, dst := range map[string]*string{
		"model-name":               &cfg.ModelName,
		"base-url":                 &cfg.BaseURL,
		"api-key":                  &cfg.APIKey,
		"coordinator-url":          &cfg.CoordinatorURL,
		"public-model-name":        &cfg.PublicModelName,
		"public-model-description": &cfg.PublicModelDescription,
		"tracks":                   &cfg.Tracks,
		"team-hash":                &cfg.TeamHash,
		"logs-dir":                 &cfg.LogsDir,
		"results-db":               &cfg.ResultsDB,
		"status-addr":              &cfg.StatusAddr,
		"log-level":                &cfg.LogLevel,
	} {
		if err := setString(flag, dst); err != nil {
			return cfg, err
		}
	}
	if fl.Changed("small-category") {
		v, err := fl.GetBool("small-category")
		if err != nil {
			return cfg, err
		}
		cfg.SmallCategory = v
	}
	if fl.Changed("max-games-per-track") {
		raw, _ := fl.GetString("max-games-per-track")
		n, err := config.ParseMaxGames(raw)
		if err != nil {
			return cfg, err
		}
		cfg.MaxGamesPerTrack = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := buildPlayConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)
	log.Info().
		Str("model", cfg.ModelName).
		Str("public_name", cfg.PublicModelName).
		Str("tracks", cfg.Tracks).
		Msg("starting play session")

	player := agent.New(cfg.ModelName, cfg.BaseURL, cfg.APIKey, log)
	coord := runner.WrapArena(arena.NewClient(cfg.CoordinatorURL, log))

	writer, err := gamelog.NewWriter(cfg.LogsDir, cfg.PublicModelName, log)
	if err != nil {
		return err
	}
	var results runner.ResultSink
	if cfg.ResultsDB != "" {
		store, err := gamelog.OpenStore(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer store.Close()
		results = store
	}

	r, err := runner.New(cfg, coord, player, writer, results, log)
	if err != nil {
		return err
	}

	if cfg.StatusAddr != "" {
		srv := statusapi.NewServer(cfg.StatusAddr, r, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("status endpoint failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	stopSignals := r.NotifySignals()
	defer stopSignals()

	return r.Run(cmd.Context())
}
