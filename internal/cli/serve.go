package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mindplay/internal/launch"
)

func newServeCmd() *cobra.Command {
	var (
		opts         launch.ServerOptions
		ropeScaling  string
		readyTimeout time.Duration
		logLevel     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Launch and supervise the inference server",
		Long: `Serve starts the external inference server with the given model and
parallelism settings, streams its output, and waits until the OpenAI API
answers on /v1/models. SIGINT and SIGTERM are forwarded to the child.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := launch.ParseRopeScaling(ropeScaling)
			if err != nil {
				return err
			}
			opts.RopeScaling = rs
			return runServe(cmd.Context(), opts, readyTimeout, logLevel)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&opts.Binary, "binary", launch.DefaultBinary, "Inference server executable")
	fl.StringVar(&opts.Model, "model", "", "Model to serve (required)")
	fl.StringVar(&opts.ReasoningParser, "reasoning-parser", "", "Reasoning output parser, e.g. qwen3")
	fl.StringVar(&opts.Dtype, "dtype", "", "Numeric precision, e.g. bfloat16")
	fl.StringVar(&opts.Host, "host", "", "Bind host")
	fl.IntVar(&opts.Port, "port", 0, "Bind port")
	fl.IntVar(&opts.TensorParallelSize, "tensor-parallel-size", 0, "Tensor parallel degree")
	fl.IntVar(&opts.DataParallelSize, "data-parallel-size", 0, "Data parallel degree")
	fl.StringVar(&ropeScaling, "rope-scaling", "", `Positional-embedding scaling JSON, e.g. {"rope_type":"yarn","factor":4.0,"original_max_position_embeddings":32768}; set only when game contexts exceed the native window`)
	fl.StringVar(&opts.ServedModelName, "served-model-name", "", "Name the API reports for the model")
	fl.StringSliceVar(&opts.ExtraArgs, "extra-args", nil, "Extra arguments passed to the server verbatim")
	fl.DurationVar(&readyTimeout, "ready-timeout", 10*time.Minute, "How long to wait for the API to come up")
	fl.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func runServe(ctx context.Context, opts launch.ServerOptions, readyTimeout time.Duration, logLevel string) error {
	log := newLogger(logLevel)
	sup := launch.NewSupervisor(opts, nil, log)
	if err := sup.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigCh)
		close(done)
	}()
	go func() {
		sent := 0
		for {
			select {
			case sig := <-sigCh:
				sent++
				if sent == 1 {
					log.Info().Str("signal", sig.String()).Msg("forwarding signal to inference server")
					_ = sup.Signal(sig)
					continue
				}
				log.Warn().Msg("second signal, stopping inference server")
				sup.Stop(5 * time.Second)
			case <-done:
				return
			}
		}
	}()

	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	go func() {
		if err := launch.WaitReady(readyCtx, opts.BaseURL(), 2*time.Second); err != nil {
			if ctx.Err() == nil && readyCtx.Err() != nil {
				log.Warn().Err(err).Msg("inference server never became ready")
			}
			return
		}
		log.Info().Str("base_url", opts.BaseURL()).Msg("inference server ready")
	}()

	return sup.Wait()
}
