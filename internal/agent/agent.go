// Package agent plays a single turn: it renders the observation into chat
// messages, calls the inference server's chat completions API, and parses
// the model output into an action.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"mindplay/internal/prompt"
)

// Action is the move extracted from a model completion.
type Action struct {
	Text        string `json:"action"`
	ParseFailed bool   `json:"action_parsing_failed"`
}

// Response captures one full agent turn for logging and submission.
type Response struct {
	Prompt     string `json:"prompt,omitempty"`
	Completion string `json:"completion"`
	Reasoning  string `json:"reasoning,omitempty"`
	Action     Action `json:"action"`
}

// Agent relays observations to an OpenAI-compatible inference server.
type Agent struct {
	model  string
	client openai.Client
	log    zerolog.Logger

	attempts   int
	retryDelay time.Duration
}

// New builds an Agent for the given model. baseURL points at the inference
// server's API root (e.g. http://127.0.0.1:8000/v1/); apiKey may be a
// placeholder when the server enforces no authentication.
func New(model, baseURL, apiKey string, log zerolog.Logger) *Agent {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Agent{
		model:      model,
		client:     openai.NewClient(opts...),
		log:        log,
		attempts:   3,
		retryDelay: time.Second,
	}
}

// Act builds the prompt for the observation and requests a completion,
// retrying transport errors and empty responses. Context cancellation wins
// over retries so a forced shutdown aborts the in-flight move.
func (a *Agent) Act(ctx context.Context, observation string) (Response, error) {
	msgs := prompt.BuildMessages(observation)
	game := prompt.DetectGame(observation)
	sp := samplingFor(game)

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    toChatMessages(msgs),
		Temperature: openai.Float(sp.Temperature),
		TopP:        openai.Float(sp.TopP),
	}
	var reqOpts []option.RequestOption
	if sp.TopK > 0 {
		reqOpts = append(reqOpts, option.WithJSONSet("top_k", sp.TopK))
	}
	if sp.MinP != nil {
		reqOpts = append(reqOpts, option.WithJSONSet("min_p", *sp.MinP))
	}

	var lastErr error
	for attempt := 0; attempt < a.attempts; attempt++ {
		if attempt > 0 {
			completionRetries.Inc()
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(a.retryDelay):
			}
		}
		resp, err := a.client.Chat.Completions.New(ctx, params, reqOpts...)
		if err != nil {
			if ctx.Err() != nil {
				return Response{}, ctx.Err()
			}
			lastErr = err
			a.log.Warn().Err(err).Str("game", string(game)).Int("attempt", attempt+1).Msg("completion request failed")
			continue
		}
		if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			// empty or truncated responses are retryable
			lastErr = fmt.Errorf("no completion found in the response")
			continue
		}
		choice := resp.Choices[0]
		return Response{
			Prompt:     prompt.Transcript(msgs),
			Completion: choice.Message.Content,
			Reasoning:  reasoningContent(choice.Message),
			Action:     parseAction(choice.Message.Content),
		}, nil
	}
	return Response{}, fmt.Errorf("chat completion failed after %d attempts: %w", a.attempts, lastErr)
}

func toChatMessages(msgs []prompt.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// reasoningContent extracts the non-standard reasoning_content field that
// reasoning-parser-enabled servers attach to the message.
func reasoningContent(msg openai.ChatCompletionMessage) string {
	f, ok := msg.JSON.ExtraFields["reasoning_content"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(f.Raw()), &s); err != nil {
		return ""
	}
	return s
}

// parseAction trims the completion into the action submitted to the game.
// Environments validate the format themselves, so nothing is rejected here.
func parseAction(completion string) Action {
	return Action{Text: strings.TrimSpace(completion)}
}
