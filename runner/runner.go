// Package runner exposes the high-level pipeline operations: converting
// datasources into graph artifacts, enhancing and validating artifacts, and
// serving a query endpoint over them. Each operation resolves assets,
// stages files, composes the control-script and drives one engine session,
// with teardown guaranteed whatever the caller does.
package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/probs-lab/probs-runner/assets"
	"github.com/probs-lab/probs-runner/config"
	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/engine"
	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/logger"
	"github.com/probs-lab/probs-runner/namespace"
	"github.com/probs-lab/probs-runner/pipeline"
	"github.com/probs-lab/probs-runner/staging"
)

// Options adjusts one pipeline operation. The zero value uses the loaded
// configuration throughout.
type Options struct {
	// Config overrides the loaded configuration. Nil loads it.
	Config *config.Config
	// Assets names the standard-assets source: a local directory or a
	// fetchable URL. Empty falls back to the configured assets.dir.
	Assets string
	// WorkingDir is the engine working directory. Empty selects a fresh
	// temporary directory removed at teardown; a named directory is kept
	// for inspection.
	WorkingDir string
	// Port overrides the endpoint port for endpoint operations.
	Port int
	// Namespaces is merged over the default prefix table, caller wins.
	Namespaces *namespace.Table
}

func (o Options) config() (config.Config, error) {
	if o.Config != nil {
		return *o.Config, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

func (o Options) port(cfg config.Config) int {
	if o.Port > 0 {
		return o.Port
	}
	return cfg.Endpoint.Port
}

func (o Options) namespaces() *namespace.Table {
	return namespace.Default().Merge(o.Namespaces)
}

// run stages the operation's files, composes its script and starts the
// engine session. Callers own the returned session.
func run(ctx context.Context, req pipeline.Request, sources []*datasource.Datasource, artifacts []string, opts Options) (*engine.Session, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	req.Port = opts.port(cfg)

	src, err := assets.Resolve(ctx, opts.Assets, cfg.Assets.Dir)
	if err != nil {
		return nil, err
	}
	defer src.Release()

	resolver := staging.NewResolver(src.Dir)
	var files *datasource.FileMap
	if req.DatasourceDriven() {
		if len(sources) == 0 {
			return nil, errors.NewValidationError("no datasources supplied for %s", req.Shape)
		}
		files, err = resolver.ResolveDatasources(sources, req.Stages()...)
	} else {
		consumer, ok := req.ConsumerStage()
		if !ok {
			return nil, errors.NewValidationError("shape %s does not resume from artifacts", req.Shape)
		}
		files, err = resolver.ResolveArtifacts(consumer, artifacts, req.Stages()...)
	}
	if err != nil {
		return nil, err
	}

	script, err := pipeline.Compose(req)
	if err != nil {
		return nil, err
	}

	sessionOpts := engine.Options{
		Files:           files,
		Script:          script,
		Namespaces:      opts.namespaces(),
		WorkingDir:      opts.WorkingDir,
		WaitForEndpoint: req.EndpointShaped(),
		Port:            req.PortOrDefault(),
		Engine:          cfg.Engine,
	}
	if artifact, ok := req.OutputArtifact(); ok {
		sessionOpts.OutputArtifact = artifact
	}

	logger.Logger.Infow("running pipeline", "shape", req.Shape.String(),
		"datasources", len(sources), "artifacts", len(artifacts))
	return engine.Start(ctx, sessionOpts)
}

// runToArtifact drives a run-to-completion shape and copies the produced
// artifact to outputPath.
func runToArtifact(ctx context.Context, req pipeline.Request, sources []*datasource.Datasource, artifacts []string, outputPath string, opts Options) error {
	if outputPath == "" {
		return errors.NewValidationError("no output path supplied for %s", req.Shape)
	}
	staged, ok := req.OutputArtifact()
	if !ok {
		return errors.NewValidationError("shape %s does not produce an artifact", req.Shape)
	}

	s, err := run(ctx, req, sources, artifacts, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := copyFile(s.File(staged), outputPath); err != nil {
		return errors.Wrapf(err, "failed to deliver artifact to %q", outputPath)
	}
	logger.Logger.Infow("artifact written", "shape", req.Shape.String(), "output", outputPath)
	return s.Close()
}

// ConvertData converts the datasources and writes the converted-data
// artifact to outputPath.
func ConvertData(ctx context.Context, sources []*datasource.Datasource, outputPath string, opts Options) error {
	return runToArtifact(ctx, pipeline.Request{Shape: pipeline.ShapeConvert}, sources, nil, outputPath, opts)
}

// EnhanceData enhances existing converted-data artifacts and writes the
// enhanced artifact to outputPath.
func EnhanceData(ctx context.Context, artifacts []string, outputPath string, opts Options) error {
	return runToArtifact(ctx, pipeline.Request{Shape: pipeline.ShapeEnhance}, nil, artifacts, outputPath, opts)
}

// ConvertEnhanceData converts the datasources and enhances the result in
// one engine session, writing the enhanced artifact to outputPath.
func ConvertEnhanceData(ctx context.Context, sources []*datasource.Datasource, outputPath string, opts Options) error {
	return runToArtifact(ctx, pipeline.Request{Shape: pipeline.ShapeConvertEnhance}, sources, nil, outputPath, opts)
}

// ValidateData runs the validation checks over existing converted-data
// artifacts. A failing check surfaces as the engine run failing.
func ValidateData(ctx context.Context, artifacts []string, opts Options) error {
	s, err := run(ctx, pipeline.Request{Shape: pipeline.ShapeValidate}, nil, artifacts, opts)
	if err != nil {
		return err
	}
	return s.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
