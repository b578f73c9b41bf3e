package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/runner"
)

// EnhanceCmd enhances existing converted-data artifacts.
var EnhanceCmd = &cobra.Command{
	Use:   "enhance <artifact>... -o <output>",
	Short: "Enhance converted-data artifacts",
	Long: `Enhance existing converted-data artifacts, producing the
enhanced-data artifact.

Every artifact argument is loaded into one engine session before the
enhancement stage runs, so artifacts produced by separate conversion runs
can be enhanced together.

Example:
  probs enhance original.nt.gz -o enhanced.nt.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		if err := requireArtifacts(args); err != nil {
			return err
		}

		pterm.Info.Printf("Enhancing %d artifact(s)\n", len(args))
		if err := runner.EnhanceData(cmd.Context(), args, output, opts); err != nil {
			pterm.Error.Printf("Enhancement failed: %v\n", err)
			return err
		}

		pterm.Success.Printf("Wrote %s\n", output)
		return nil
	},
}

func init() {
	EnhanceCmd.Flags().StringP("output", "o", "", "Output artifact path (required)")
	_ = EnhanceCmd.MarkFlagRequired("output")
	addRunFlags(EnhanceCmd)
}
