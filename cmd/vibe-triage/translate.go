package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-triage/internal/spdi"
)

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <chrom> <pos> <ref> <alt>",
		Short: "Print the GRCh38 SPDI identifier for a variant",
		Long:  "Translate a 1-based VCF-style variant to a 0-based SPDI identifier on the " + spdi.Assembly + " RefSeq accession.",
		Example: `  vibe-triage translate 17 43093268 G A     # NC_000017.11:43093267:G:A
  vibe-triage translate chrX 1000 AT A`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q", args[1])
			}
			id, err := spdi.FromVariant(args[0], pos, args[2], args[3])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
