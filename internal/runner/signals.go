package runner

import (
	"os"
	"os/signal"
	"syscall"
)

// NotifySignals wires SIGINT and SIGTERM to the interrupt machine: the
// first signal drains, the second forces termination. The returned stop
// function uninstalls the handler.
func (r *Runner) NotifySignals() (stop func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				r.log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
				r.Interrupt()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
