package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"mindplay/pkg/types"
)

// Config holds session parameters for a play run. It is assembled once at
// startup (defaults <- file <- env <- flags) and immutable afterwards.
type Config struct {
	// Inference server side.
	ModelName string `json:"model_name" yaml:"model_name" toml:"model_name" env:"MINDPLAY_MODEL_NAME"`
	BaseURL   string `json:"base_url" yaml:"base_url" toml:"base_url" env:"MINDPLAY_BASE_URL"`
	APIKey    string `json:"api_key" yaml:"api_key" toml:"api_key" env:"MINDPLAY_API_KEY"`

	// Coordinator side.
	CoordinatorURL         string `json:"coordinator_url" yaml:"coordinator_url" toml:"coordinator_url" env:"MINDPLAY_COORDINATOR_URL"`
	PublicModelName        string `json:"public_model_name" yaml:"public_model_name" toml:"public_model_name" env:"MINDPLAY_PUBLIC_MODEL_NAME"`
	PublicModelDescription string `json:"public_model_description" yaml:"public_model_description" toml:"public_model_description" env:"MINDPLAY_PUBLIC_MODEL_DESCRIPTION"`
	Tracks                 string `json:"tracks" yaml:"tracks" toml:"tracks" env:"MINDPLAY_TRACKS"`
	SmallCategory          bool   `json:"small_category" yaml:"small_category" toml:"small_category" env:"MINDPLAY_SMALL_CATEGORY"`
	TeamHash               string `json:"team_hash" yaml:"team_hash" toml:"team_hash" env:"MINDPLAY_TEAM_HASH"`

	// Run shape and local outputs.
	MaxGamesPerTrack int    `json:"max_games_per_track" yaml:"max_games_per_track" toml:"max_games_per_track" env:"MINDPLAY_MAX_GAMES_PER_TRACK"`
	LogsDir          string `json:"logs_dir" yaml:"logs_dir" toml:"logs_dir" env:"MINDPLAY_LOGS_DIR"`
	ResultsDB        string `json:"results_db" yaml:"results_db" toml:"results_db" env:"MINDPLAY_RESULTS_DB"`
	StatusAddr       string `json:"status_addr" yaml:"status_addr" toml:"status_addr" env:"MINDPLAY_STATUS_ADDR"`
	LogLevel         string `json:"log_level" yaml:"log_level" toml:"log_level" env:"MINDPLAY_LOG_LEVEL"`
}

// Default returns the baseline configuration before file/env/flag layers.
func Default() Config {
	return Config{
		ModelName:       "Qwen/Qwen3-8B",
		PublicModelName: "In2AI/Baseline",
		Tracks:          string(types.TrackGeneralization),
		SmallCategory:   true,
		LogsDir:         "./mindplay-logs/online/",
		ResultsDB:       "./mindplay-logs/results.db",
		LogLevel:        "info",
	}
}

// LoadDotenv loads a .env file from the working directory when present.
// Missing files are not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// ApplyEnv overlays MINDPLAY_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks invariants required before a play run starts.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TeamHash) == "" {
		return fmt.Errorf("team hash is required")
	}
	if _, ok := types.ParseTracks(c.Tracks); !ok {
		return fmt.Errorf("unknown tracks selector %q (want Generalization, Social Detection, or All)", c.Tracks)
	}
	if c.MaxGamesPerTrack < 0 {
		return fmt.Errorf("max games per track must be > 0 or unlimited")
	}
	return nil
}

// SelectedTracks resolves the track selector. Call Validate first.
func (c Config) SelectedTracks() []types.Track {
	ts, _ := types.ParseTracks(c.Tracks)
	return ts
}

// ParseMaxGames parses the --max-games-per-track value: an integer > 0, or
// "none"/"" for no limit (returned as 0).
func ParseMaxGames(s string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "none" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("must be an integer > 0 or 'none'")
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be an integer > 0 or 'none'")
	}
	return n, nil
}
