// Package arena is the client side of the game coordinator: HTTP
// matchmaking plus a websocket session for the matched game. The server
// side of the protocol is external; only the client's view is modeled.
package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"mindplay/pkg/types"
)

// DefaultBaseURL is the public matchmaking endpoint for the competition.
const DefaultBaseURL = "https://matchmaking.mindgames.ai"

// RegisterRequest is the matchmaking payload.
type RegisterRequest struct {
	ModelName        string      `json:"model_name"`
	ModelDescription string      `json:"model_description"`
	Track            types.Track `json:"track"`
	SmallCategory    bool        `json:"small_category"`
	TeamHash         string      `json:"team_hash"`
}

// Match is a successful matchmaking result.
type Match struct {
	types.MatchInfo
}

// Client talks to the coordinator's matchmaking API and joins games.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient builds a coordinator client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 0}, // matchmaking can hold the request; deadlines come from ctx
		log:     log,
	}
}

// Register enters the matchmaking queue and blocks until the coordinator
// assigns a game or ctx is canceled. Registration rejections are permanent
// (IsRegistrationFailed); HTTP 429 yields a *RateLimitError.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Match, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal register request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       strings.TrimSpace(string(b)),
		}
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnprocessableEntity {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, ErrRegistrationFailed(strings.TrimSpace(string(b)))
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("register: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var match Match
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	if match.GameURL == "" {
		return nil, fmt.Errorf("register: match missing game url")
	}
	c.log.Info().Str("env", match.MatchedEnvName).Str("url", match.GameURL).Msg("matched into game")
	return &match, nil
}

// Join dials the matched game's websocket and returns the live session.
func (c *Client) Join(ctx context.Context, match *Match) (*Game, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, match.GameURL, &websocket.DialOptions{
		HTTPClient: c.httpc,
	})
	if err != nil {
		return nil, fmt.Errorf("dial game websocket: %w", err)
	}
	// Games exchange long observations; the default 32 KiB cap is too low.
	conn.SetReadLimit(4 << 20)
	return &Game{conn: conn, match: match, log: c.log}, nil
}
