package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probs-lab/probs-runner/errors"
)

func writeQueryFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestCollectQueriesNamesByFileBase(t *testing.T) {
	dir := t.TempDir()
	objects := writeQueryFile(t, dir, "objects.rq", "SELECT ?obj WHERE { ?obj a :Object }")
	flows := writeQueryFile(t, dir, "flows.rq", "SELECT ?flow WHERE { ?flow a :Flow }")

	queries, err := collectQueries([]string{objects, flows}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, queries.Len())
}

func TestCollectQueriesInline(t *testing.T) {
	queries, err := collectQueries(nil, "SELECT ?obj WHERE { ?obj a :Object }")
	require.NoError(t, err)
	assert.Equal(t, 1, queries.Len())
}

func TestCollectQueriesRejectsMixedSources(t *testing.T) {
	dir := t.TempDir()
	objects := writeQueryFile(t, dir, "objects.rq", "SELECT ?obj WHERE { ?obj a :Object }")

	_, err := collectQueries([]string{objects}, "SELECT ?x WHERE {}")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCollectQueriesRequiresQueries(t *testing.T) {
	_, err := collectQueries(nil, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCollectQueriesRejectsDuplicateFileNames(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	a := writeQueryFile(t, dirA, "objects.rq", "SELECT ?a WHERE {}")
	b := writeQueryFile(t, dirB, "objects.rq", "SELECT ?b WHERE {}")

	_, err := collectQueries([]string{a, b}, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCollectQueriesMissingFile(t *testing.T) {
	_, err := collectQueries([]string{filepath.Join(t.TempDir(), "missing.rq")}, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
