// Package engine owns the lifecycle of one external graph-reasoning engine
// process: materializing the staged file tree into a working directory,
// launching the engine with a composed control-script, waiting for the
// readiness condition the pipeline shape requires, and guaranteeing
// teardown. It also provides the query client and result decoding for the
// engine's SPARQL endpoint.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/probs-lab/probs-runner/config"
	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/logger"
	"github.com/probs-lab/probs-runner/namespace"
	"github.com/probs-lab/probs-runner/staging"
)

// State is the lifecycle state of a session.
type State int

const (
	StateCreated State = iota
	StateMaterializing
	StateStarting
	StateReady
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateMaterializing:
		return "materializing"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// endpointReadyMarker is the stdout line fragment the engine prints once its
// query endpoint is listening.
const endpointReadyMarker = "endpoint was successfully started"

// stderrTailLines is how much engine stderr is kept for error reports.
const stderrTailLines = 20

// Options configures one engine session.
type Options struct {
	// Files is the staged file map to materialize.
	Files *datasource.FileMap
	// Script is the composed control-script, one directive per line.
	Script []string
	// Namespaces is the prefix table declared for queries. Nil selects
	// the defaults.
	Namespaces *namespace.Table
	// WorkingDir is the directory to materialize into. Empty selects a
	// fresh temporary directory owned (and removed) by the session.
	WorkingDir string
	// WaitForEndpoint selects endpoint readiness instead of waiting for
	// the process to run to completion.
	WaitForEndpoint bool
	// Port is the endpoint port, for endpoint-shaped sessions.
	Port int
	// OutputArtifact is the staged path that must exist after a
	// run-to-completion session.
	OutputArtifact string
	// Engine configures the external process.
	Engine config.EngineConfig
}

// Session wraps one running engine process. Create with Start; always Close.
type Session struct {
	id          string
	workDir     string
	ownsWorkDir bool
	endpointURL string
	namespaces  *namespace.Table
	engine      config.EngineConfig
	httpClient  *http.Client

	cmd   *exec.Cmd
	stdin io.WriteCloser

	ready chan struct{} // closed when the ready marker is seen
	done  chan struct{} // closed when the process has exited

	mu         sync.Mutex
	state      State
	waitErr    error
	stderrTail []string
	closed     bool
}

// Start materializes the staged files, launches the engine and waits for
// readiness. For endpoint-shaped sessions it returns once the endpoint is
// live; otherwise it returns after the process has run to completion and the
// declared output artifact exists. On error nothing is leaked: the process
// is terminated and any owned temporary directory removed.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Files == nil || opts.Files.Len() == 0 {
		return nil, errors.NewValidationError("no staged files supplied")
	}
	if len(opts.Script) == 0 {
		return nil, errors.NewValidationError("empty control script")
	}

	namespaces := opts.Namespaces
	if namespaces == nil {
		namespaces = namespace.Default()
	}

	s := &Session{
		id:         uuid.NewString(),
		namespaces: namespaces,
		engine:     opts.Engine,
		httpClient: &http.Client{},
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		state:      StateCreated,
	}

	if err := s.materialize(opts); err != nil {
		return nil, errors.CombineErrors(err, s.Close())
	}
	if err := s.launch(opts); err != nil {
		return nil, errors.CombineErrors(err, s.Close())
	}

	var err error
	if opts.WaitForEndpoint {
		err = s.awaitEndpoint(ctx, opts.Port)
	} else {
		err = s.awaitCompletion(ctx, opts.OutputArtifact)
	}
	if err != nil {
		// Teardown failures must not mask the startup error.
		err = errors.CombineErrors(err, s.Close())
		return nil, err
	}
	return s, nil
}

func (s *Session) materialize(opts Options) error {
	s.setState(StateMaterializing)

	if opts.WorkingDir != "" {
		s.workDir = opts.WorkingDir
	} else {
		dir, err := os.MkdirTemp("", "probs-run-")
		if err != nil {
			return errors.Wrap(err, "failed to create session working directory")
		}
		s.workDir = dir
		s.ownsWorkDir = true
	}

	logger.Logger.Infow("materializing staged files",
		"session", s.id, "working_dir", s.workDir, "files", opts.Files.Len())
	return staging.Materialize(opts.Files, s.workDir)
}

func (s *Session) launch(opts Options) error {
	s.setState(StateStarting)

	extraArgs, err := s.engine.Args()
	if err != nil {
		return err
	}
	executable := s.engine.Executable
	if executable == "" {
		executable = "RDFox"
	}
	args := append([]string{"sandbox", s.workDir}, extraArgs...)

	cmd := exec.Command(executable, args...)
	cmd.Dir = s.workDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "failed to create engine stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to create engine stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "failed to create engine stderr pipe")
	}

	logger.Logger.Infow("starting engine",
		"session", s.id, "executable", executable, "args", args)
	logger.Logger.Debugw("composed script", "session", s.id, "script", strings.Join(opts.Script, "\n"))

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(errors.ErrProcessStartup, "failed to start engine %q: %v", executable, err)
	}
	s.cmd = cmd
	s.stdin = stdin

	// Wait closes the pipes; both readers must reach EOF first.
	var pipesDrained sync.WaitGroup
	pipesDrained.Add(2)
	go func() {
		defer pipesDrained.Done()
		s.stdoutLoop(stdout)
	}()
	go func() {
		defer pipesDrained.Done()
		s.stderrLoop(stderr)
	}()
	go func() {
		pipesDrained.Wait()
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(s.done)
	}()

	// Feed the composed script. For endpoint sessions stdin stays open so
	// the engine keeps serving.
	for _, line := range opts.Script {
		if _, err := io.WriteString(stdin, line+"\n"); err != nil {
			return errors.Wrapf(errors.ErrProcessStartup, "failed to write control script: %v", err)
		}
	}
	if !opts.WaitForEndpoint {
		if err := stdin.Close(); err != nil {
			return errors.Wrapf(errors.ErrProcessStartup, "failed to close engine stdin: %v", err)
		}
		s.stdin = nil
	}
	return nil
}

// awaitCompletion waits for the process to exit cleanly, then requires the
// declared output artifact to exist.
func (s *Session) awaitCompletion(ctx context.Context, outputArtifact string) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "cancelled while waiting for engine run")
	case <-s.done:
	}

	s.mu.Lock()
	waitErr := s.waitErr
	tail := strings.Join(s.stderrTail, "\n")
	s.mu.Unlock()

	if waitErr != nil {
		return errors.Wrapf(errors.ErrEngineRuntime, "engine run failed: %v\n%s", waitErr, tail)
	}
	if outputArtifact != "" {
		if _, err := os.Stat(s.File(outputArtifact)); err != nil {
			return errors.Wrapf(errors.ErrEngineRuntime,
				"engine run completed but expected artifact %q is missing", outputArtifact)
		}
	}
	s.setState(StateTerminated)
	logger.Logger.Infow("engine run completed", "session", s.id)
	return nil
}

// awaitEndpoint waits for the ready marker on engine stdout, bounded by the
// configured startup timeout.
func (s *Session) awaitEndpoint(ctx context.Context, port int) error {
	timeout := time.Duration(s.engine.StartupTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultStartupTimeoutSeconds * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ready:
		s.endpointURL = fmt.Sprintf("http://localhost:%d", port)
		s.setState(StateReady)
		logger.Logger.Infow("endpoint ready", "session", s.id, "url", s.endpointURL)
		return nil
	case <-s.done:
		s.mu.Lock()
		waitErr := s.waitErr
		tail := strings.Join(s.stderrTail, "\n")
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrProcessStartup,
			"engine exited before endpoint was ready: %v\n%s", waitErr, tail)
	case <-timer.C:
		return errors.Wrapf(errors.ErrReadinessTimeout,
			"no endpoint-ready signal within %s", timeout)
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "cancelled while waiting for endpoint")
	}
}

func (s *Session) stdoutLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	readySignalled := false
	for scanner.Scan() {
		line := scanner.Text()
		logger.Logger.Debugw("engine stdout", "session", s.id, "line", line)
		if !readySignalled && strings.Contains(line, endpointReadyMarker) {
			readySignalled = true
			close(s.ready)
		}
	}
}

func (s *Session) stderrLoop(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		logger.Logger.Debugw("engine stderr", "session", s.id, "line", line)
		s.mu.Lock()
		s.stderrTail = append(s.stderrTail, line)
		if len(s.stderrTail) > stderrTailLines {
			s.stderrTail = s.stderrTail[1:]
		}
		s.mu.Unlock()
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// WorkingDir returns the materialized working directory.
func (s *Session) WorkingDir() string { return s.workDir }

// URL returns the endpoint base URL once the session is ready.
func (s *Session) URL() string { return s.endpointURL }

// Namespaces returns the session's declared prefix table.
func (s *Session) Namespaces() *namespace.Table { return s.namespaces }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// File returns the absolute path of a staged target inside the working
// directory.
func (s *Session) File(target string) string {
	return filepath.Join(s.workDir, filepath.FromSlash(target))
}

// Close tears the session down: signal the process to stop if still
// running, wait for exit within the configured grace period (killing it on
// overrun), then remove any owned temporary directory. Idempotent and safe
// to call from any state.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = StateStopping
	s.mu.Unlock()

	var closeErr error
	if s.cmd != nil && s.cmd.Process != nil {
		closeErr = s.stopProcess()
	}

	s.cleanupWorkDir()
	s.setState(StateTerminated)
	logger.Logger.Infow("session terminated", "session", s.id)
	return closeErr
}

func (s *Session) stopProcess() error {
	select {
	case <-s.done:
		// Already exited.
		return nil
	default:
	}

	// Closing stdin asks the engine to finish; SIGTERM covers engines
	// already past reading it.
	if s.stdin != nil {
		_ = s.stdin.Close()
		s.stdin = nil
	}
	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.Logger.Warnw("failed to signal engine", "session", s.id, "error", err)
	}

	grace := time.Duration(s.engine.ShutdownGraceSeconds) * time.Second
	if grace <= 0 {
		grace = config.DefaultShutdownGraceSeconds * time.Second
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.done:
		return nil
	case <-timer.C:
		logger.Logger.Warnw("engine did not stop within grace period, killing",
			"session", s.id, "grace", grace)
		if err := s.cmd.Process.Kill(); err != nil {
			return errors.Wrapf(err, "failed to kill engine process (pid %d)", s.cmd.Process.Pid)
		}
		<-s.done
		return nil
	}
}

func (s *Session) cleanupWorkDir() {
	if !s.ownsWorkDir || s.workDir == "" {
		return
	}
	if err := os.RemoveAll(s.workDir); err != nil {
		logger.Logger.Warnw("failed to remove session working directory",
			"session", s.id, "working_dir", s.workDir, "error", err)
		return
	}
	s.workDir = ""
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	logger.Logger.Debugw("session state", "session", s.id, "state", state.String())
}
