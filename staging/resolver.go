package staging

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/errors"
)

// Resolver computes staged file maps rooted at one standard-assets source.
// The assets directory must already be validated (see package assets).
type Resolver struct {
	assetsDir string
}

// NewResolver returns a resolver using the given assets directory.
func NewResolver(assetsDir string) *Resolver {
	return &Resolver{assetsDir: assetsDir}
}

// standardAssets stages the ontology, auxiliary facts, the shared script
// tree and the script folders of the requested stages.
func (r *Resolver) standardAssets(stages []Stage) *datasource.FileMap {
	m := datasource.NewFileMap()
	// Fresh map; these fixed targets cannot collide.
	_ = m.Add(OntologyTarget, datasource.File(filepath.Join(r.assetsDir, "probs.fss")))
	_ = m.Add(AdditionalInfoTarget, datasource.File(filepath.Join(r.assetsDir, "additional_info.ttl")))
	_ = m.Add(StageShared.ScriptsDir(), datasource.File(filepath.Join(r.assetsDir, StageShared.ScriptsDir())))

	for _, stage := range stages {
		if stage == StageShared || m.Has(stage.ScriptsDir()) {
			continue
		}
		_ = m.Add(stage.ScriptsDir(), datasource.File(filepath.Join(r.assetsDir, stage.ScriptsDir())))
	}
	return m
}

// ResolveDatasources produces the staged file map for a run driven by
// datasources. The load-script and rule accumulators receive the
// newline-joined concatenation of every datasource's text in supply order;
// any other target collision is a hard error.
func (r *Resolver) ResolveDatasources(sources []*datasource.Datasource, stages ...Stage) (*datasource.FileMap, error) {
	m := r.standardAssets(stages)

	loadScripts := make([]string, len(sources))
	rules := make([]string, len(sources))
	for i, src := range sources {
		loadScripts[i] = src.LoadDataScript
		rules[i] = src.Rules
	}
	m.Set(LoadDataAccumulator, datasource.Literal(strings.Join(loadScripts, "\n")))
	m.Set(RulesAccumulator, datasource.Literal(strings.Join(rules, "\n")))

	// Keeps data/ present even when every file stages into a sub-folder.
	m.Set(dataPlaceholder, datasource.Literal(""))

	for i, src := range sources {
		for _, target := range src.InputFiles.Targets() {
			if isAccumulator(target) {
				return nil, errors.Wrapf(errors.ErrStagingCollision,
					"datasource %s stages over accumulator target %q", src.Name(), target)
			}
			fileSrc, _ := src.InputFiles.Get(target)
			if err := m.Add(target, fileSrc); err != nil {
				return nil, errors.Wrapf(err, "merging datasource %d (%s)", i, src.Name())
			}
		}
	}

	return m, nil
}

// ResolveArtifacts produces the staged file map for a run resuming from
// existing artifacts. Each artifact is staged under a hash-prefixed name that
// is unique even when callers supply artifacts sharing a base file name, and
// consumer's load-instruction file is synthesized to import each staged
// artifact in input order.
func (r *Resolver) ResolveArtifacts(consumer Stage, artifacts []string, stages ...Stage) (*datasource.FileMap, error) {
	if len(artifacts) == 0 {
		return nil, errors.NewValidationError("no input artifacts supplied")
	}

	m := r.standardAssets(stages)

	imports := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		name := ArtifactStagedName(artifact)
		if err := m.Add(path.Join(datasource.DataDir, name), datasource.File(artifact)); err != nil {
			return nil, errors.Wrapf(err, "staging artifact %q", artifact)
		}
		imports = append(imports, "import "+name)
	}

	// Replaces the stage's single-import step; written after the stage's
	// script folder so it overrides any copy shipped with the assets.
	m.Set(consumer.LoadScriptTarget(), datasource.Literal(strings.Join(imports, "\n")+"\n"))

	return m, nil
}

// ArtifactStagedName returns the unique-by-construction staged file name for
// a resumed artifact: a hash of the source path prefixed to its base name.
func ArtifactStagedName(artifact string) string {
	abs, err := filepath.Abs(artifact)
	if err != nil {
		abs = artifact
	}
	sum := md5.Sum([]byte(abs))
	return fmt.Sprintf("%s-%s", hex.EncodeToString(sum[:])[:8], filepath.Base(artifact))
}
