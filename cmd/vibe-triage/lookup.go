package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <spdi>...",
		Short: "Resolve clinical significance for SPDI identifiers",
		Long: `Resolve each identifier through the significance cache and, on a miss,
the Variation Services API. Requests are rate limited and answers are cached
like during a run.`,
		Example: `  vibe-triage lookup NC_000017.11:43093267:G:A
  vibe-triage lookup --cache clinvar.duckdb NC_000001.11:999:A:T NC_000002.12:299:C:G`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			sess, err := openSession(logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := sess.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("close cache: %w", cerr)
				}
			}()

			for _, id := range args {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				label := sess.client.Resolve(cmd.Context(), id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, label)
			}
			sess.logStats()
			return nil
		},
	}
}
