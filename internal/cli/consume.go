package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"relayd/internal/client"
	"relayd/internal/transport"
)

func newConsumeCmd(opts *Options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:     "consume",
		Short:   "Run a test consumer that prints every line it receives",
		Example: "  relayd consume --addr 127.0.0.1:9000\n  relayd ctl REGISTER sink tcp://127.0.0.1:9000 orders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), firstNonEmpty(opts.LogLevel, os.Getenv("RELAYD_LOG_LEVEL")), firstNonEmpty(opts.LogFormat, os.Getenv("RELAYD_LOG_FORMAT")))
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ln, err := transport.Listen(addr)
			if err != nil {
				return err
			}
			log.Info().Str("addr", ln.Addr().String()).Msg("consumer listening")
			return consume(ctx, ln, cmd.OutOrStdout(), log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9000", "Listen address")
	return cmd
}

// consume prints each received line to out until ctx ends.
func consume(ctx context.Context, ln net.Listener, out io.Writer, log zerolog.Logger) error {
	tr, err := transport.New(client.ProtocolTCP, transport.Options{Listener: "consume", Logger: log})
	if err != nil {
		return err
	}
	lines := make(chan string, 64)
	done := make(chan error, 1)
	go func() {
		done <- tr.Serve(ctx, ln, func(line string) { lines <- line })
		close(lines)
	}()
	for line := range lines {
		fmt.Fprintln(out, line)
	}
	return <-done
}
