package staging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/errors"
)

// testAssetsDir builds a minimal standard-assets tree.
func testAssetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "probs.fss"), "ontology")
	writeFile(t, filepath.Join(dir, "additional_info.ttl"), "# extra facts\n")
	for _, stage := range []Stage{StageShared, StageConversion, StageEnhancement, StageValidation, StageReasoning} {
		writeFile(t, filepath.Join(dir, "scripts", string(stage), "master"), "echo "+string(stage)+"\n")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func tripleSource(t *testing.T, dir, name, facts string) *datasource.Datasource {
	t.Helper()
	p := filepath.Join(dir, name)
	writeFile(t, p, facts)
	inputs, err := datasource.Files(p)
	require.NoError(t, err)
	ds, err := datasource.FromFiles(inputs, datasource.Script{}, datasource.Script{})
	require.NoError(t, err)
	return ds
}

func literalTarget(t *testing.T, m *datasource.FileMap, target string) string {
	t.Helper()
	src, ok := m.Get(target)
	require.True(t, ok, "missing staged target %q", target)
	r, err := src.Open()
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(content)
}

func TestResolveDatasourcesIncludesStandardAssets(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	ds := datasource.FromFacts(":Farming a :Process .")

	m, err := resolver.ResolveDatasources([]*datasource.Datasource{ds}, StageConversion)
	require.NoError(t, err)

	assert.True(t, m.Has(OntologyTarget))
	assert.True(t, m.Has(AdditionalInfoTarget))
	assert.True(t, m.Has("scripts/shared"))
	assert.True(t, m.Has("scripts/data-conversion"))
	assert.False(t, m.Has("scripts/reasoning"))
	assert.True(t, m.Has(LoadDataAccumulator))
	assert.True(t, m.Has(RulesAccumulator))
}

func TestAccumulatorOrderFollowsSupplyOrder(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	dir := t.TempDir()
	a := tripleSource(t, dir, "a.ttl", ":A a :Process .")
	b := tripleSource(t, dir, "b.ttl", ":B a :Process .")

	ab, err := resolver.ResolveDatasources([]*datasource.Datasource{a, b}, StageConversion)
	require.NoError(t, err)
	ba, err := resolver.ResolveDatasources([]*datasource.Datasource{b, a}, StageConversion)
	require.NoError(t, err)

	scriptAB := literalTarget(t, ab, LoadDataAccumulator)
	scriptBA := literalTarget(t, ba, LoadDataAccumulator)
	assert.Less(t, strings.Index(scriptAB, a.Name()), strings.Index(scriptAB, b.Name()))
	assert.Less(t, strings.Index(scriptBA, b.Name()), strings.Index(scriptBA, a.Name()))

	// Outside the accumulators the two maps bind the same targets.
	for _, target := range ab.Targets() {
		if target == LoadDataAccumulator || target == RulesAccumulator {
			continue
		}
		assert.True(t, ba.Has(target), "missing %q after reordering", target)
	}
	assert.Equal(t, ab.Len(), ba.Len())
}

func TestResolveDatasourcesDetectsCollision(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	dir := t.TempDir()
	a := tripleSource(t, dir, "x.ttl", ":A a :Process .")

	_, err := resolver.ResolveDatasources([]*datasource.Datasource{a, a}, StageConversion)
	require.Error(t, err)
	assert.True(t, errors.IsStagingCollision(err))
}

func TestDifferentSourcesNeverCollide(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	a := tripleSource(t, dir1, "x.ttl", ":A a :Process .")
	b := tripleSource(t, dir2, "x.ttl", ":B a :Process .")

	m, err := resolver.ResolveDatasources([]*datasource.Datasource{a, b}, StageConversion)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestResolveArtifactsHashPrefixesNames(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	dir := t.TempDir()
	p1 := filepath.Join(dir, "dir1", "original.nt.gz")
	p2 := filepath.Join(dir, "dir2", "original.nt.gz")
	writeFile(t, p1, "gz1")
	writeFile(t, p2, "gz2")

	m, err := resolver.ResolveArtifacts(StageEnhancement, []string{p1, p2}, StageEnhancement)
	require.NoError(t, err)

	name1 := ArtifactStagedName(p1)
	name2 := ArtifactStagedName(p2)
	assert.NotEqual(t, name1, name2)
	assert.True(t, strings.HasSuffix(name1, "-original.nt.gz"))
	assert.True(t, m.Has("data/"+name1))
	assert.True(t, m.Has("data/"+name2))

	script := literalTarget(t, m, StageEnhancement.LoadScriptTarget())
	first := strings.Index(script, "import "+name1)
	second := strings.Index(script, "import "+name2)
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first, "imports must follow input order")
}

func TestArtifactStagedNameIsStable(t *testing.T) {
	assert.Equal(t, ArtifactStagedName("/tmp/a/out.nt.gz"), ArtifactStagedName("/tmp/a/out.nt.gz"))
	assert.NotEqual(t, ArtifactStagedName("/tmp/a/out.nt.gz"), ArtifactStagedName("/tmp/b/out.nt.gz"))
}

func TestResolveArtifactsRequiresInput(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	_, err := resolver.ResolveArtifacts(StageReasoning, nil, StageReasoning)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestMaterialize(t *testing.T) {
	resolver := NewResolver(testAssetsDir(t))
	dir := t.TempDir()
	ds := tripleSource(t, dir, "facts.ttl", ":Farming a :Process .\n")

	m, err := resolver.ResolveDatasources([]*datasource.Datasource{ds}, StageConversion)
	require.NoError(t, err)

	workDir := filepath.Join(t.TempDir(), "working")
	require.NoError(t, Materialize(m, workDir))

	// Standard assets copied.
	assert.FileExists(t, filepath.Join(workDir, "data", "probs.fss"))
	assert.FileExists(t, filepath.Join(workDir, "scripts", "shared", "master"))

	// Accumulator written over the script folder copy.
	script, err := os.ReadFile(filepath.Join(workDir, "scripts", "data-conversion", "load_data.rdfox"))
	require.NoError(t, err)
	assert.Contains(t, string(script), ds.Name())

	// Datasource file staged under its namespace folder.
	facts, err := os.ReadFile(filepath.Join(workDir, "data", ds.Name(), "facts.ttl"))
	require.NoError(t, err)
	assert.Equal(t, ":Farming a :Process .\n", string(facts))
}
