package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/runner"
)

// ValidateCmd runs the validation checks over converted-data artifacts.
var ValidateCmd = &cobra.Command{
	Use:   "validate <artifact>...",
	Short: "Run validation checks over converted-data artifacts",
	Long: `Run the validation checks over existing converted-data artifacts.

The validation scripts query the loaded data for consistency problems
(unbalanced processes, missing references and the like); any failing check
makes the engine run fail and the command exit non-zero.

Example:
  probs validate original.nt.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		if err := requireArtifacts(args); err != nil {
			return err
		}

		pterm.Info.Printf("Validating %d artifact(s)\n", len(args))
		if err := runner.ValidateData(cmd.Context(), args, opts); err != nil {
			pterm.Error.Printf("Validation failed: %v\n", err)
			return err
		}

		pterm.Success.Println("Validation passed")
		return nil
	},
}

func init() {
	addRunFlags(ValidateCmd)
}
