package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/runner"
)

// ConvertCmd converts datasources into the converted-data artifact.
var ConvertCmd = &cobra.Command{
	Use:   "convert <file-or-dir>... -o <output>",
	Short: "Convert datasources into the converted-data artifact",
	Long: `Convert datasources into the converted-data artifact.

Each directory argument is loaded as a conventional data directory
(load_data.rdfox, map.dlog and the data files next to them); loose RDF
file arguments (.ttl, .nt, .ttl.gz, .nt.gz) are imported directly.

With --enhance the enhancement stage runs in the same engine session and
the output is the enhanced-data artifact.

Examples:
  probs convert inputs/ -o original.nt.gz
  probs convert facts.ttl extra.nt.gz -o original.nt.gz
  probs convert inputs/ --enhance -o enhanced.nt.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		enhance, _ := cmd.Flags().GetBool("enhance")

		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		sources, err := parseDatasources(args)
		if err != nil {
			return err
		}

		pterm.Info.Printf("Converting %d datasource(s)\n", len(sources))
		if enhance {
			err = runner.ConvertEnhanceData(cmd.Context(), sources, output, opts)
		} else {
			err = runner.ConvertData(cmd.Context(), sources, output, opts)
		}
		if err != nil {
			pterm.Error.Printf("Conversion failed: %v\n", err)
			return err
		}

		pterm.Success.Printf("Wrote %s\n", output)
		return nil
	},
}

func init() {
	ConvertCmd.Flags().StringP("output", "o", "", "Output artifact path (required)")
	_ = ConvertCmd.MarkFlagRequired("output")
	ConvertCmd.Flags().Bool("enhance", false, "Also run the enhancement stage, producing the enhanced-data artifact")
	addRunFlags(ConvertCmd)
}
