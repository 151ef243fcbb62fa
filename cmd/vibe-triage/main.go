// Package main provides the vibe-triage command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-triage/internal/annotate"
	"github.com/inodb/vibe-triage/internal/clinvar"
	"github.com/inodb/vibe-triage/internal/ratelimit"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".vibe-triage"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "vibe-triage",
		Short: "Variant triage with ClinVar clinical significance",
		Long: `vibe-triage filters VCF variant calls by quality and depth, annotates them
with clinical significance from the NCBI Variation Services API and writes
summary statistics.`,
		Example: `  # Triage a VCF file
  vibe-triage run sample.vcf.gz

  # Translate a variant to an SPDI identifier
  vibe-triage translate 17 43093268 G A

  # Look up identifiers through the cache
  vibe-triage lookup NC_000017.11:43093267:G:A`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cfgFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+".yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("cache", "", "Significance cache path (.json, or .duckdb for a DuckDB store)")
	pf.String("base-url", "", "Variation Services SPDI endpoint")
	mustBind("log.verbose", pf.Lookup("verbose"))
	mustBind("cache.path", pf.Lookup("cache"))
	mustBind("clinvar.base_url", pf.Lookup("base-url"))

	root.AddCommand(newRunCmd())
	root.AddCommand(newTranslateCmd())
	root.AddCommand(newLookupCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-triage version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// setDefaults registers every configuration key so that config show lists
// them and environment overrides apply.
func setDefaults() {
	rl := ratelimit.DefaultConfig()
	out := annotate.DefaultOutputs()

	viper.SetDefault("log.verbose", false)
	viper.SetDefault("cache.path", "clinvar_cache.json")
	viper.SetDefault("clinvar.base_url", clinvar.DefaultBaseURL)
	viper.SetDefault("clinvar.timeout", clinvar.DefaultTimeout.String())
	viper.SetDefault("ratelimit.strategy", string(rl.Strategy))
	viper.SetDefault("ratelimit.min_interval", rl.MinInterval.String())
	viper.SetDefault("ratelimit.requests_per_second", rl.RequestsPerSec)
	viper.SetDefault("ratelimit.burst", rl.Burst)
	viper.SetDefault("pipeline.query_limit", annotate.DefaultQueryLimit)
	viper.SetDefault("pipeline.output_limit", annotate.DefaultOutputLimit)
	viper.SetDefault("output.variants", out.Variants)
	viper.SetDefault("output.statistics", out.Statistics)
	viper.SetDefault("output.duckdb", "")
	viper.SetDefault("output.table", "")
}

// loadConfig reads the config file and environment. A missing config file
// is not an error.
func loadConfig(cfgFile string) error {
	setDefaults()

	viper.SetEnvPrefix("VIBE_TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(filepath.Join(home, configName+".yaml"))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// mustBind binds a config key to a flag. It panics if the flag is missing.
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
