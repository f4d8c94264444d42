package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"relayd/internal/control"
)

func newCtlCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ctl <command...>",
		Short: "Send one registration command and print the response",
		Example: "  relayd ctl REGISTER sink tcp://127.0.0.1:9000 orders alerts\n" +
			"  relayd ctl SUBSCRIBE sink payments\n" +
			"  relayd ctl LIST",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			resp, err := runCtl(ctx, addr, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp)
			if strings.HasPrefix(resp, "ERROR:") {
				return fmt.Errorf("command failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:49153", "Registration server address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Dial and response timeout")
	return cmd
}

func runCtl(ctx context.Context, addr, command string) (string, error) {
	c, err := control.Dial(ctx, addr)
	if err != nil {
		return "", err
	}
	defer c.Close()
	return c.Do(ctx, command)
}
