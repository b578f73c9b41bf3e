package commands

import (
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/probs-lab/probs-runner/engine"
	"github.com/probs-lab/probs-runner/runner"
)

// EndpointCmd serves a SPARQL endpoint over pipeline outputs.
var EndpointCmd = &cobra.Command{
	Use:   "endpoint <artifact-or-input>...",
	Short: "Serve a SPARQL endpoint over pipeline outputs",
	Long: `Serve a SPARQL endpoint until interrupted.

By default the arguments are enhanced-data artifacts and the endpoint serves
them with the reasoning rules loaded. Earlier pipeline stages can be chained
into the same session:

  --enhance            arguments are converted-data artifacts; enhance first
  --convert            arguments are datasources; convert first
  --convert --enhance  arguments are datasources; run the full pipeline

Examples:
  probs endpoint enhanced.nt.gz
  probs endpoint original.nt.gz --enhance
  probs endpoint inputs/ --convert --enhance --port 3030`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		convert, _ := cmd.Flags().GetBool("convert")
		enhance, _ := cmd.Flags().GetBool("enhance")

		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		opts.Port, _ = cmd.Flags().GetInt("port")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serve := func(s *engine.Session) error {
			pterm.Success.Printf("SPARQL endpoint ready at %s\n", s.URL())
			pterm.Info.Println("Press Ctrl+C to stop")
			<-ctx.Done()
			pterm.Info.Println("Shutting down")
			return nil
		}

		switch {
		case convert && enhance:
			sources, err := parseDatasources(args)
			if err != nil {
				return err
			}
			return runner.ConvertEnhanceEndpoint(ctx, sources, opts, serve)
		case convert:
			sources, err := parseDatasources(args)
			if err != nil {
				return err
			}
			return runner.ConvertEndpoint(ctx, sources, opts, serve)
		case enhance:
			if err := requireArtifacts(args); err != nil {
				return err
			}
			return runner.EnhanceEndpoint(ctx, args, opts, serve)
		default:
			if err := requireArtifacts(args); err != nil {
				return err
			}
			return runner.Endpoint(ctx, args, opts, serve)
		}
	},
}

func init() {
	EndpointCmd.Flags().Int("port", 0, "Endpoint listening port (default: configured or 12112)")
	EndpointCmd.Flags().Bool("convert", false, "Treat arguments as datasources and convert them first")
	EndpointCmd.Flags().Bool("enhance", false, "Run the enhancement stage before serving")
	addRunFlags(EndpointCmd)
}
