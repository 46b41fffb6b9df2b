package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/geotoken/internal/client"
	"github.com/shandysiswandi/geotoken/internal/pkg/uid"
	"github.com/spf13/cobra"
)

const stopTimeout = 5 * time.Second

func newProduceCommand(cfg *cliConfig) *cobra.Command {
	var lat, lon float64
	var locationFile string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Append a location-stamped token every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var location client.LocationProvider
			switch {
			case locationFile != "":
				location = client.FileLocation{Path: locationFile}
			case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon"):
				location = client.StaticLocation{Latitude: lat, Longitude: lon}
			default:
				return errors.New("a location is required: --lat and --lon, or --location-file")
			}

			api, cred, err := cfg.authed()
			if err != nil {
				return err
			}
			if cred.Role != client.RoleProducer {
				return fmt.Errorf("logged in as %s, produce needs a producer session", cred.Role)
			}

			out := cmd.OutOrStdout()
			loop := client.NewProducerLoop(api, location, uid.NewUUID(), client.ProducerConfig{
				Interval: interval,
				OnToken: func(tok client.Token) {
					fmt.Fprintf(out, "token %d at %s (%.6f, %.6f)\n",
						tok.ID, tok.Timestamp.Local().Format(time.TimeOnly), tok.Latitude, tok.Longitude)
				},
			})

			ctx := cmd.Context()
			if err := loop.Start(ctx); err != nil {
				return cfg.sessionError(cmd, err)
			}
			fmt.Fprintln(out, "Generating tokens, press Ctrl+C to stop")

			return cfg.sessionError(cmd, waitLoop(ctx, loop.Wait, func() error {
				stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
				defer cancel()
				if err := loop.Stop(stopCtx); err != nil {
					return err
				}
				fmt.Fprintf(out, "Stopped after %d tokens\n", loop.Appended())
				return nil
			}))
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in decimal degrees")
	cmd.Flags().StringVar(&locationFile, "location-file", "", `JSON file with {"latitude":..,"longitude":..}, re-read every tick`)
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultProduceInterval, "pause between tokens")
	_ = cmd.Flags().MarkHidden("interval")

	return cmd
}

// waitLoop blocks until the loop ends on its own or ctx is canceled, in
// which case stop runs and the loop's own result is discarded.
func waitLoop(ctx context.Context, wait func() error, stop func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- wait() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		err := stop()
		<-errCh
		return err
	}
}
