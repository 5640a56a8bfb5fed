package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func completionJSON(content, reasoning string) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	if reasoning != "" {
		msg["reasoning_content"] = reasoning
	}
	return map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"model":   "test-model",
		"choices": []any{map[string]any{"index": 0, "message": msg, "finish_reason": "stop"}},
	}
}

// fakeServer runs an OpenAI-compatible chat completions endpoint and hands
// each decoded request body to fn, which returns the response payload.
func fakeServer(t *testing.T, fn func(body map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, payload := fn(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAgent(model, baseURL string) *Agent {
	a := New(model, baseURL, "placeholder", zerolog.Nop())
	a.retryDelay = time.Millisecond
	return a
}

func TestActSuccess(t *testing.T) {
	var got map[string]any
	srv := fakeServer(t, func(body map[string]any) (int, any) {
		got = body
		return http.StatusOK, completionJSON("[A10 B0 C10]", "thinking...")
	})

	a := newTestAgent("test-model", srv.URL+"/v1/")
	obs := "You are Commander Alpha in a game of ColonelBlotto.\nUnits to allocate: 20\nAvailable fields: A, B, C"
	resp, err := a.Act(context.Background(), obs)
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if resp.Completion != "[A10 B0 C10]" || resp.Action.Text != "[A10 B0 C10]" {
		t.Fatalf("resp: %+v", resp)
	}
	if resp.Reasoning != "thinking..." {
		t.Fatalf("reasoning: %q", resp.Reasoning)
	}
	if resp.Prompt == "" {
		t.Fatalf("expected prompt transcript")
	}

	if got["model"] != "test-model" {
		t.Fatalf("model: %v", got["model"])
	}
	if got["temperature"] != 1.0 || got["top_p"] != 1.0 {
		t.Fatalf("sampling: temp=%v top_p=%v", got["temperature"], got["top_p"])
	}
	if _, ok := got["top_k"]; ok {
		t.Fatalf("top_k must not be sent for default games")
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: %d", len(msgs))
	}
	if msgs[0].(map[string]any)["role"] != "system" || msgs[1].(map[string]any)["role"] != "user" {
		t.Fatalf("roles: %v", msgs)
	}
}

func TestActIPDSampling(t *testing.T) {
	var got map[string]any
	srv := fakeServer(t, func(body map[string]any) (int, any) {
		got = body
		return http.StatusOK, completionJSON("[0 cooperate] [1 cooperate]", "")
	})

	a := newTestAgent("test-model", srv.URL+"/v1/")
	obs := "You are Player 2 in a 3-player Iterated Prisoner's Dilemma.\nThe match lasts 8 rounds."
	if _, err := a.Act(context.Background(), obs); err != nil {
		t.Fatalf("act: %v", err)
	}
	if got["temperature"] != 0.6 || got["top_p"] != 0.95 {
		t.Fatalf("sampling: %v %v", got["temperature"], got["top_p"])
	}
	if got["top_k"] != float64(20) {
		t.Fatalf("top_k: %v", got["top_k"])
	}
	if got["min_p"] != 0.0 {
		t.Fatalf("min_p: %v", got["min_p"])
	}
}

func TestActRetriesEmptyCompletion(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, func(body map[string]any) (int, any) {
		if calls.Add(1) < 3 {
			return http.StatusOK, completionJSON("", "")
		}
		return http.StatusOK, completionJSON("ok", "")
	})

	a := newTestAgent("m", srv.URL+"/v1/")
	retriesBefore := testutil.ToFloat64(completionRetries)
	resp, err := a.Act(context.Background(), "hello")
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if resp.Completion != "ok" {
		t.Fatalf("completion: %q", resp.Completion)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls: %d", calls.Load())
	}
	if got := testutil.ToFloat64(completionRetries) - retriesBefore; got != 2 {
		t.Fatalf("retry counter advanced by %v, want 2", got)
	}
}

func TestActExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, func(body map[string]any) (int, any) {
		calls.Add(1)
		return http.StatusInternalServerError, map[string]any{"error": "boom"}
	})

	a := newTestAgent("m", srv.URL+"/v1/")
	if _, err := a.Act(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls: %d", calls.Load())
	}
}

func TestActContextCanceled(t *testing.T) {
	srv := fakeServer(t, func(body map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{"error": "boom"}
	})

	a := newTestAgent("m", srv.URL+"/v1/")
	a.retryDelay = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Act(ctx, "hello")
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected context error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Act did not return after cancel")
	}
}

func TestParseAction(t *testing.T) {
	a := parseAction("  [apple 3]\n")
	if a.Text != "[apple 3]" || a.ParseFailed {
		t.Fatalf("action: %+v", a)
	}
}
