package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probs-lab/probs-runner/config"
	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/errors"
)

// fakeEngine writes a shell script standing in for the engine binary.
func fakeEngine(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-engine")
	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func stagedFiles(t *testing.T) *datasource.FileMap {
	t.Helper()
	m := datasource.NewFileMap()
	require.NoError(t, m.Add("data/probs.fss", datasource.Literal("ontology")))
	require.NoError(t, m.Add("scripts/shared/setup-RDFox", datasource.Literal("set x \"y\"")))
	return m
}

const endpointEngineBody = `echo "The REST endpoint was successfully started at port number 12112"
cat >/dev/null
`

func TestArtifactRunCompletes(t *testing.T) {
	exe := fakeEngine(t, `mkdir -p data
: > data/probs_original_data.nt.gz
cat >/dev/null
exit 0
`)

	s, err := Start(context.Background(), Options{
		Files:          stagedFiles(t),
		Script:         []string{"exec scripts/data-conversion/master", "quit"},
		OutputArtifact: "data/probs_original_data.nt.gz",
		Engine:         config.EngineConfig{Executable: exe},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, StateTerminated, s.State())
	assert.FileExists(t, s.File("data/probs_original_data.nt.gz"))
	require.NoError(t, s.Close())
}

func TestArtifactRunFailsOnNonZeroExit(t *testing.T) {
	exe := fakeEngine(t, `echo "fatal: no license" >&2
cat >/dev/null
exit 3
`)

	_, err := Start(context.Background(), Options{
		Files:  stagedFiles(t),
		Script: []string{"exec scripts/data-conversion/master", "quit"},
		Engine: config.EngineConfig{Executable: exe},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEngineRuntime))
	assert.Contains(t, err.Error(), "no license")
}

func TestArtifactRunFailsWhenArtifactMissing(t *testing.T) {
	exe := fakeEngine(t, `cat >/dev/null
exit 0
`)

	_, err := Start(context.Background(), Options{
		Files:          stagedFiles(t),
		Script:         []string{"exec scripts/data-conversion/master", "quit"},
		OutputArtifact: "data/probs_original_data.nt.gz",
		Engine:         config.EngineConfig{Executable: exe},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEngineRuntime))
	assert.Contains(t, err.Error(), "probs_original_data.nt.gz")
}

func TestStartFailsForMissingExecutable(t *testing.T) {
	_, err := Start(context.Background(), Options{
		Files:  stagedFiles(t),
		Script: []string{"quit"},
		Engine: config.EngineConfig{Executable: filepath.Join(t.TempDir(), "no-such-engine")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProcessStartup))
}

func TestEndpointSessionBecomesReady(t *testing.T) {
	exe := fakeEngine(t, endpointEngineBody)

	s, err := Start(context.Background(), Options{
		Files:           stagedFiles(t),
		Script:          []string{`set endpoint.port "12112"`, "exec scripts/reasoning/master-pipeline"},
		WaitForEndpoint: true,
		Port:            12112,
		Engine:          config.EngineConfig{Executable: exe},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "http://localhost:12112", s.URL())
}

func TestEndpointReadinessTimeout(t *testing.T) {
	exe := fakeEngine(t, `cat >/dev/null
`)

	start := time.Now()
	_, err := Start(context.Background(), Options{
		Files:           stagedFiles(t),
		Script:          []string{"exec scripts/reasoning/master-pipeline"},
		WaitForEndpoint: true,
		Port:            12112,
		Engine: config.EngineConfig{
			Executable:            exe,
			StartupTimeoutSeconds: 1,
			ShutdownGraceSeconds:  1,
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsReadinessTimeout(err))
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestEndpointStartupFailure(t *testing.T) {
	exe := fakeEngine(t, `echo "cannot bind port" >&2
exit 1
`)

	_, err := Start(context.Background(), Options{
		Files:           stagedFiles(t),
		Script:          []string{"exec scripts/reasoning/master-pipeline"},
		WaitForEndpoint: true,
		Port:            12112,
		Engine:          config.EngineConfig{Executable: exe},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProcessStartup))
	assert.Contains(t, err.Error(), "cannot bind port")
}

func TestCloseRemovesOwnedWorkingDir(t *testing.T) {
	exe := fakeEngine(t, endpointEngineBody)

	s, err := Start(context.Background(), Options{
		Files:           stagedFiles(t),
		Script:          []string{"exec scripts/reasoning/master-pipeline"},
		WaitForEndpoint: true,
		Port:            12112,
		Engine:          config.EngineConfig{Executable: exe, ShutdownGraceSeconds: 5},
	})
	require.NoError(t, err)

	workDir := s.WorkingDir()
	require.DirExists(t, workDir)

	require.NoError(t, s.Close())
	assert.NoDirExists(t, workDir)
	assert.Equal(t, StateTerminated, s.State())

	// Idempotent.
	require.NoError(t, s.Close())
}

func TestCallerSuppliedWorkingDirIsKept(t *testing.T) {
	exe := fakeEngine(t, endpointEngineBody)
	workDir := filepath.Join(t.TempDir(), "working")

	s, err := Start(context.Background(), Options{
		Files:           stagedFiles(t),
		Script:          []string{"exec scripts/reasoning/master-pipeline"},
		WaitForEndpoint: true,
		Port:            12112,
		WorkingDir:      workDir,
		Engine:          config.EngineConfig{Executable: exe, ShutdownGraceSeconds: 5},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.DirExists(t, workDir)
	assert.FileExists(t, filepath.Join(workDir, "data", "probs.fss"))
}

func TestStartValidatesOptions(t *testing.T) {
	_, err := Start(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Start(context.Background(), Options{Files: stagedFiles(t)})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
