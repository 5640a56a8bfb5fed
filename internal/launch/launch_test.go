package launch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestArgsFullOptions(t *testing.T) {
	opts := ServerOptions{
		Model:              "Qwen/Qwen3-8B",
		ReasoningParser:    "qwen3",
		Dtype:              "bfloat16",
		Host:               "0.0.0.0",
		Port:               8000,
		TensorParallelSize: 2,
		DataParallelSize:   4,
		RopeScaling:        &RopeScaling{Type: "yarn", Factor: 4.0, OriginalMaxPositionEmbeddings: 32768},
		ServedModelName:    "qwen3-8b",
		ExtraArgs:          []string{"--max-model-len", "131072"},
	}
	args, err := opts.Args()
	if err != nil {
		t.Fatalf("Args: %v", err)
	}
	got := strings.Join(args, " ")
	want := `serve Qwen/Qwen3-8B --reasoning-parser qwen3 --dtype bfloat16 --host 0.0.0.0 --port 8000 ` +
		`--tensor-parallel-size 2 --data-parallel-size 4 ` +
		`--rope-scaling {"rope_type":"yarn","factor":4,"original_max_position_embeddings":32768} ` +
		`--served-model-name qwen3-8b --max-model-len 131072`
	if got != want {
		t.Fatalf("args = %q\nwant   %q", got, want)
	}
}

func TestArgsOmitsUnsetFlags(t *testing.T) {
	args, err := ServerOptions{Model: "m"}.Args()
	if err != nil {
		t.Fatalf("Args: %v", err)
	}
	if got := strings.Join(args, " "); got != "serve m" {
		t.Fatalf("args = %q, want just serve m", got)
	}
	for _, a := range args {
		if a == "--rope-scaling" {
			t.Fatal("rope-scaling must only be emitted when set")
		}
	}
}

func TestArgsRequiresModel(t *testing.T) {
	if _, err := (ServerOptions{}).Args(); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestParseRopeScaling(t *testing.T) {
	rs, err := ParseRopeScaling(`{"rope_type":"yarn","factor":2.5,"original_max_position_embeddings":40960}`)
	if err != nil {
		t.Fatalf("ParseRopeScaling: %v", err)
	}
	if rs.Type != "yarn" || rs.Factor != 2.5 || rs.OriginalMaxPositionEmbeddings != 40960 {
		t.Fatalf("unexpected value: %+v", rs)
	}

	if rs, err := ParseRopeScaling(""); err != nil || rs != nil {
		t.Fatalf("empty input should be nil, nil; got %+v, %v", rs, err)
	}
	if _, err := ParseRopeScaling(`{"factor":2}`); err == nil {
		t.Fatal("expected error for missing rope_type")
	}
	if _, err := ParseRopeScaling(`not json`); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestBaseURL(t *testing.T) {
	if got := (ServerOptions{}).BaseURL(); got != "http://127.0.0.1:8000/v1" {
		t.Fatalf("default base url = %q", got)
	}
	if got := (ServerOptions{Host: "0.0.0.0", Port: 9001}).BaseURL(); got != "http://127.0.0.1:9001/v1" {
		t.Fatalf("wildcard host base url = %q", got)
	}
	if got := (ServerOptions{Host: "10.0.0.5", Port: 8000}).BaseURL(); got != "http://10.0.0.5:8000/v1" {
		t.Fatalf("explicit host base url = %q", got)
	}
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("polled %s, want /v1/models", r.URL.Path)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := WaitReady(ctx, srv.URL+"/v1", 5*time.Millisecond); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", calls.Load())
	}
}

func TestWaitReadyTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := WaitReady(ctx, "http://127.0.0.1:1/v1", 5*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSupervisorStartWait(t *testing.T) {
	// /bin/true ignores the vllm-style argv; this exercises only the
	// start and wait plumbing.
	sup := NewSupervisor(ServerOptions{Binary: "/bin/true", Model: "m"}, map[string]string{"MINDPLAY_TEST": "1"}, zerolog.Nop())
	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sup.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSupervisorPropagatesExitCode(t *testing.T) {
	sup := NewSupervisor(ServerOptions{Binary: "/bin/false", Model: "m"}, nil, zerolog.Nop())
	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sup.Wait(); err == nil {
		t.Fatal("expected nonzero exit error")
	}
}

func TestSupervisorStopKillsChild(t *testing.T) {
	// yes prints its argv forever and ignores it, so it stands in for a
	// long-running server.
	if _, err := os.Stat("/usr/bin/yes"); err != nil {
		t.Skip("yes not available")
	}
	sup := NewSupervisor(ServerOptions{Binary: "/usr/bin/yes", Model: "m"}, nil, zerolog.Nop())
	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waited := make(chan error, 1)
	go func() { waited <- sup.Wait() }()

	sup.Stop(2 * time.Second)
	select {
	case err := <-waited:
		if err == nil {
			t.Fatal("expected a signal exit error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("child did not stop")
	}
}

func TestSupervisorWaitBeforeStart(t *testing.T) {
	sup := NewSupervisor(ServerOptions{Binary: "/bin/true", Model: "m"}, nil, zerolog.Nop())
	if err := sup.Wait(); err == nil {
		t.Fatal("expected error before Start")
	}
}
