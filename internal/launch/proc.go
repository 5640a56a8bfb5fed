package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Supervisor runs the inference server as a child process, streaming its
// output into the structured log and forwarding shutdown signals.
type Supervisor struct {
	opts ServerOptions
	env  map[string]string
	log  zerolog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewSupervisor builds a supervisor for one server invocation. env entries
// are added on top of the inherited environment.
func NewSupervisor(opts ServerOptions, env map[string]string, log zerolog.Logger) *Supervisor {
	return &Supervisor{opts: opts, env: env, log: log}
}

// Start launches the child. Output lines are logged as they arrive.
func (s *Supervisor) Start(ctx context.Context) error {
	args, err := s.opts.Args()
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, s.opts.binary(), args...)
	cmd.Env = os.Environ()
	for k, v := range s.env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.opts.binary(), err)
	}
	s.log.Info().Str("bin", s.opts.binary()).Strs("args", args).Int("pid", cmd.Process.Pid).Msg("inference server started")
	go s.stream(stdout)
	go s.stream(stderr)

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()
	return nil
}

// Wait blocks until the child exits.
func (s *Supervisor) Wait() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil {
		return fmt.Errorf("not started")
	}
	return cmd.Wait()
}

// Signal forwards sig to the child.
func (s *Supervisor) Signal(sig os.Signal) error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return fmt.Errorf("not started")
	}
	return cmd.Process.Signal(sig)
}

// Stop asks the child to terminate and kills it after grace.
func (s *Supervisor) Stop(grace time.Duration) {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	// Kill is a no-op error once the process has already exited.
	time.AfterFunc(grace, func() { _ = cmd.Process.Kill() })
}

func (s *Supervisor) stream(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		s.log.Info().Msg(sc.Text())
	}
}
