package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-triage/internal/duckdb"
	"github.com/inodb/vibe-triage/internal/output"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Query a DuckDB export written by run --duckdb",
		Long: `Inspect the annotated variants exported by the last "run --duckdb".
The database defaults to output.duckdb from the configuration.`,
		Example: `  vibe-triage export show --db triage.duckdb
  vibe-triage export lookup --db triage.duckdb 17 43093268`,
	}

	cmd.PersistentFlags().String("db", "", "Export database (default: output.duckdb)")

	cmd.AddCommand(newExportShowCmd())
	cmd.AddCommand(newExportLookupCmd())

	return cmd
}

// openExport opens the export database named by --db or output.duckdb.
func openExport(cmd *cobra.Command) (*duckdb.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("output.duckdb")
	}
	if path == "" {
		return nil, errors.New("no export database: pass --db or set output.duckdb")
	}
	db, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export database: %w", err)
	}
	return db, nil
}

func newExportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print variant counts per clinical significance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openExport(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			total, err := db.VariantCount()
			if err != nil {
				return err
			}
			counts, err := db.CountBySignificance()
			if err != nil {
				return err
			}

			labels := make([]string, 0, len(counts))
			for l := range counts {
				labels = append(labels, l)
			}
			sort.Slice(labels, func(i, j int) bool {
				if counts[labels[i]] != counts[labels[j]] {
					return counts[labels[i]] > counts[labels[j]]
				}
				return labels[i] < labels[j]
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported Variants: %s\n", humanize.Comma(total))
			for _, l := range labels {
				fmt.Fprintf(out, "  %s: %s\n", l, humanize.Comma(counts[l]))
			}
			return nil
		},
	}
}

func newExportLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <chrom> <pos>",
		Short: "Print exported variants at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q", args[1])
			}

			db, err := openExport(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			found, err := db.LookupVariant(args[0], pos)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return fmt.Errorf("no exported variant at %s:%d", args[0], pos)
			}
			return output.NewTabWriter(cmd.OutOrStdout()).WriteAll(found)
		},
	}
}
