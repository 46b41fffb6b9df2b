package main

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/geotoken/internal/client"
	"github.com/spf13/cobra"
)

func newConsumeCommand(cfg *cliConfig) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Claim unclaimed tokens every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, cred, err := cfg.authed()
			if err != nil {
				return err
			}
			if cred.Role != client.RoleConsumer {
				return fmt.Errorf("logged in as %s, consume needs a consumer session", cred.Role)
			}

			out := cmd.OutOrStdout()
			poller := client.NewConsumerPoller(api, client.ConsumerConfig{
				Interval: interval,
				Sink: func(tokens []client.Token) {
					fmt.Fprintf(out, "claimed %d tokens\n", len(tokens))
					lo.ForEach(tokens, func(tok client.Token, _ int) {
						fmt.Fprintf(out, "  %d  %s  %.6f, %.6f\n",
							tok.ID, tok.Timestamp.Local().Format(time.DateTime), tok.Latitude, tok.Longitude)
					})
				},
			})

			ctx := cmd.Context()
			poller.Start(ctx)
			fmt.Fprintln(out, "Waiting for tokens, press Ctrl+C to stop")

			return cfg.sessionError(cmd, waitLoop(ctx, poller.Wait, func() error {
				poller.Stop()
				fmt.Fprintf(out, "Stopped after %d tokens\n", poller.Claimed())
				return nil
			}))
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "pause between claims")
	_ = cmd.Flags().MarkHidden("interval")

	return cmd
}
