// Package commands implements the probs CLI subcommands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/config"
	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/runner"
)

// addRunFlags registers the flags shared by every pipeline command.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("assets", "", "Standard-assets source: a local directory or a fetchable URL (git, http, archive)")
	cmd.Flags().String("working-dir", "", "Engine working directory, kept after the run (default: fresh temporary directory)")
	cmd.Flags().String("config", "", "Path to a TOML config file (default: probs.toml in . or ~/.config/probs)")
}

// runOptions builds runner options from the shared flags.
func runOptions(cmd *cobra.Command) (runner.Options, error) {
	opts := runner.Options{}
	opts.Assets, _ = cmd.Flags().GetString("assets")
	opts.WorkingDir, _ = cmd.Flags().GetString("working-dir")

	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return runner.Options{}, err
		}
		opts.Config = cfg
	}
	return opts, nil
}

// parseDatasources turns command arguments into datasources: a directory
// argument loads a conventional data directory, loose file arguments are
// grouped into one auto-loaded datasource.
func parseDatasources(args []string) ([]*datasource.Datasource, error) {
	if len(args) == 0 {
		return nil, errors.NewValidationError("no input files or directories given")
	}

	var sources []*datasource.Datasource
	var loose []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.NewValidationError("input %q not found", arg)
		}
		if info.IsDir() {
			ds, err := datasource.Load(arg)
			if err != nil {
				return nil, err
			}
			sources = append(sources, ds)
			continue
		}
		loose = append(loose, arg)
	}

	if len(loose) > 0 {
		inputs, err := datasource.Files(loose...)
		if err != nil {
			return nil, err
		}
		ds, err := datasource.FromFiles(inputs, datasource.Script{}, datasource.Script{})
		if err != nil {
			return nil, err
		}
		sources = append(sources, ds)
	}
	return sources, nil
}

// requireArtifacts checks that every artifact argument names an existing
// file before the engine is started.
func requireArtifacts(args []string) error {
	if len(args) == 0 {
		return errors.NewValidationError("no input artifacts given")
	}
	for _, artifact := range args {
		info, err := os.Stat(artifact)
		if err != nil || info.IsDir() {
			return errors.NewValidationError("artifact %q not found", artifact)
		}
	}
	return nil
}
