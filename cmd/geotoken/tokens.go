package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/geotoken/internal/client"
	"github.com/spf13/cobra"
)

func newHistoryCommand(cfg *cliConfig) *cobra.Command {
	var limit, offset int32

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List produced tokens in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := cfg.authed()
			if err != nil {
				return err
			}

			page, err := api.ListTokens(cmd.Context(), limit, offset)
			if err != nil {
				return cfg.sessionError(cmd, err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIMESTAMP\tLATITUDE\tLONGITUDE\tCLAIMED")
			lo.ForEach(page.Tokens, func(tok client.Token, _ int) {
				fmt.Fprintf(tw, "%d\t%s\t%.6f\t%.6f\t%s\n",
					tok.ID, tok.Timestamp.Local().Format(time.DateTime), tok.Latitude, tok.Longitude,
					lo.Ternary(tok.Claimed, "yes", "no"))
			})
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "showing %d-%d of %d\n",
				lo.Min([]int64{int64(page.Offset) + 1, page.Total}),
				int64(page.Offset)+int64(len(page.Tokens)), page.Total)
			return nil
		},
	}

	cmd.Flags().Int32Var(&limit, "limit", 0, "page size (server default when 0)")
	cmd.Flags().Int32Var(&offset, "offset", 0, "rows to skip")

	return cmd
}

func newExportCommand(cfg *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the token history as CSV and print a download link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := cfg.authed()
			if err != nil {
				return err
			}

			exp, err := api.ExportTokens(cmd.Context())
			if err != nil {
				return cfg.sessionError(cmd, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d rows exported\n%s\nlink expires %s\n",
				exp.Rows, exp.URL, exp.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
}
