package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/engine"
	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/runner"
)

// QueryCmd answers SPARQL queries over enhanced-data artifacts.
var QueryCmd = &cobra.Command{
	Use:   "query <artifact> <query-file>...",
	Short: "Answer SPARQL queries over enhanced-data artifacts",
	Long: `Answer SPARQL queries over enhanced-data artifacts.

An endpoint is started over the artifact just long enough to answer every
query, then torn down. Results are printed as JSON keyed by query file name.
The standard prefixes (:, sys:, rdf:, rdfs:) are declared for every query.

With --query the query text is given inline instead of from files.

Examples:
  probs query enhanced.nt.gz queries/objects.rq queries/flows.rq
  probs query enhanced.nt.gz --query 'SELECT ?obj WHERE { ?obj a :Object }'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inline, _ := cmd.Flags().GetString("query")

		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		opts.Port, _ = cmd.Flags().GetInt("port")

		artifact := args[0]
		if err := requireArtifacts([]string{artifact}); err != nil {
			return err
		}

		queries, err := collectQueries(args[1:], inline)
		if err != nil {
			return err
		}

		answers, err := runner.AnswerQueries(cmd.Context(), []string{artifact}, queries, opts)
		if err != nil {
			pterm.Error.Printf("Query run failed: %v\n", err)
			return err
		}

		output, err := json.MarshalIndent(answers, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to format query results")
		}
		fmt.Println(string(output))
		return nil
	},
}

// collectQueries builds the named query set from file arguments or the
// inline query text.
func collectQueries(files []string, inline string) (engine.Queries, error) {
	if inline != "" {
		if len(files) > 0 {
			return engine.Queries{}, errors.NewValidationError("give either query files or --query, not both")
		}
		return engine.QueryList(inline), nil
	}
	if len(files) == 0 {
		return engine.Queries{}, errors.NewValidationError("no queries given")
	}

	entries := make([]engine.NamedQuery, 0, len(files))
	for _, file := range files {
		text, err := os.ReadFile(file)
		if err != nil {
			return engine.Queries{}, errors.NewValidationError("cannot read query file %q: %v", file, err)
		}
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		entries = append(entries, engine.NamedQuery{Name: name, Text: string(text)})
	}
	return engine.QueryMap(entries...)
}

func init() {
	QueryCmd.Flags().String("query", "", "Inline SPARQL query text instead of query files")
	QueryCmd.Flags().Int("port", 0, "Endpoint listening port (default: configured or 12112)")
	addRunFlags(QueryCmd)
}
