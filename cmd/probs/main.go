package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/cmd/probs/commands"
	"github.com/probs-lab/probs-runner/logger"
)

var rootCmd = &cobra.Command{
	Use:   "probs",
	Short: "probs - data pipeline runner for the PRObs reasoning engine",
	Long: `probs - drive the PRObs data pipeline with an external reasoning engine.

The pipeline converts tabular and RDF datasources into a knowledge graph,
enhances it with ontology-driven reasoning, validates it, and serves it over
a SPARQL endpoint.

Available commands:
  convert  - Convert datasources into the converted-data artifact
  enhance  - Enhance converted-data artifacts
  validate - Run validation checks over converted-data artifacts
  endpoint - Serve a SPARQL endpoint over pipeline outputs
  query    - Answer SPARQL queries over enhanced-data artifacts

Examples:
  probs convert inputs/ -o original.nt.gz        # Convert a data directory
  probs convert inputs/ --enhance -o out.nt.gz   # Convert and enhance
  probs enhance original.nt.gz -o enhanced.nt.gz # Enhance existing artifacts
  probs validate original.nt.gz                  # Run validation checks
  probs endpoint enhanced.nt.gz                  # Serve a SPARQL endpoint
  probs query enhanced.nt.gz queries/objects.rq  # Answer queries and print JSON`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(verbosity, jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ConvertCmd)
	rootCmd.AddCommand(commands.EnhanceCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.EndpointCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
