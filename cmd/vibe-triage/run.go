package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-triage/internal/annotate"
	"github.com/inodb/vibe-triage/internal/duckdb"
	"github.com/inodb/vibe-triage/internal/output"
	"github.com/inodb/vibe-triage/internal/vcf"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input.vcf>",
		Short: "Filter, annotate and summarize a VCF file",
		Long: `Filter variant calls by quality (>= 30) and depth (>= 10), resolve clinical
significance for the first variants through the cache and the NCBI
Variation Services API, write the variant listing and statistics as JSON
and print a summary. Use "-" to read from stdin; gzip input is detected.`,
		Example: `  vibe-triage run sample.vcf
  vibe-triage run --query-limit 50 --duckdb triage.duckdb sample.vcf.gz
  zcat sample.vcf.gz | vibe-triage run -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.Int("query-limit", annotate.DefaultQueryLimit, "Variants to resolve remotely, in input order")
	f.Int("output-limit", annotate.DefaultOutputLimit, "Variants written to the listing")
	f.String("variants-out", "", "Variant listing JSON path")
	f.String("stats-out", "", "Statistics JSON path")
	f.String("duckdb", "", "Export all annotated variants to this DuckDB database")
	f.String("table", "", "Write the listing as a tab-delimited table (- for stdout)")
	f.Duration("rate-interval", 0, "Minimum spacing between remote requests")
	mustBind("pipeline.query_limit", f.Lookup("query-limit"))
	mustBind("pipeline.output_limit", f.Lookup("output-limit"))
	mustBind("output.variants", f.Lookup("variants-out"))
	mustBind("output.statistics", f.Lookup("stats-out"))
	mustBind("output.duckdb", f.Lookup("duckdb"))
	mustBind("output.table", f.Lookup("table"))
	mustBind("ratelimit.min_interval", f.Lookup("rate-interval"))

	return cmd
}

func runTriage(cmd *cobra.Command, input string) (err error) {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	src, err := vcf.NewParser(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("closing cache", zap.Error(cerr))
			if err == nil {
				err = fmt.Errorf("close cache: %w", cerr)
			}
		}
	}()

	p := annotate.NewPipeline(sess.client)
	p.SetLimits(viper.GetInt("pipeline.query_limit"), viper.GetInt("pipeline.output_limit"))
	p.SetLogger(logger.Named("pipeline"))

	res, err := p.Run(cmd.Context(), src)
	sess.logStats()
	if err != nil {
		return err
	}

	outputs := annotate.Outputs{
		Variants:   viper.GetString("output.variants"),
		Statistics: viper.GetString("output.statistics"),
	}
	if err := annotate.Save(res, outputs); err != nil {
		return err
	}
	logger.Info("saved results",
		zap.String("variants", outputs.Variants),
		zap.String("statistics", outputs.Statistics),
		zap.Int("listed", len(res.Listing)))

	if path := viper.GetString("output.table"); path != "" {
		if err := writeTable(cmd, path, res); err != nil {
			return err
		}
	}

	if path := viper.GetString("output.duckdb"); path != "" {
		if err := exportDuckDB(sess, input, path, res); err != nil {
			return err
		}
	}

	return output.WriteSummary(cmd.OutOrStdout(), res.Stats, res.Labels)
}

func writeTable(cmd *cobra.Command, path string, res *annotate.Result) error {
	if path == "-" {
		return output.NewTabWriter(cmd.OutOrStdout()).WriteAll(res.Listing)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if err := output.NewTabWriter(f).WriteAll(res.Listing); err != nil {
		f.Close()
		return fmt.Errorf("write table: %w", err)
	}
	return f.Close()
}

func exportDuckDB(sess *session, input, path string, res *annotate.Result) error {
	fp, err := duckdb.StatSource(input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	db, release, err := sess.exportStore(path)
	if err != nil {
		return err
	}
	defer release() //nolint:errcheck

	runID, err := db.WriteVariants(res.Variants, fp)
	if err != nil {
		return fmt.Errorf("export variants: %w", err)
	}
	sess.logger.Info("exported variants",
		zap.String("path", path),
		zap.String("run_id", runID),
		zap.Int("count", len(res.Variants)))
	return nil
}
