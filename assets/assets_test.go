package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probs-lab/probs-runner/errors"
)

func validAssetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, OntologyFileName), []byte("ontology"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, AdditionalInfoFileName), []byte(""), 0o644))
	for _, stage := range requiredStages {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts", string(stage)), 0o755))
	}
	return dir
}

func TestResolveLocalDirectory(t *testing.T) {
	dir := validAssetsDir(t)
	src, err := Resolve(context.Background(), dir, "")
	require.NoError(t, err)
	defer src.Release()
	assert.Equal(t, dir, src.Dir)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	dir := validAssetsDir(t)
	src, err := Resolve(context.Background(), "", dir)
	require.NoError(t, err)
	defer src.Release()
	assert.Equal(t, dir, src.Dir)
}

func TestResolveErrorsWithoutAnySource(t *testing.T) {
	_, err := Resolve(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestResolveErrorsForMissingPath(t *testing.T) {
	_, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestValidateReportsMissingEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, OntologyFileName), []byte(""), 0o644))

	err := Validate(dir)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), AdditionalInfoFileName)
	assert.Contains(t, err.Error(), "scripts/reasoning")
}

func TestReleaseIsIdempotent(t *testing.T) {
	src := &Source{Dir: t.TempDir()}
	src.Release()
	src.Release()
}
