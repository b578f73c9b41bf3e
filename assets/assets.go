// Package assets resolves and validates the standard engine assets source:
// the ontology definition, the auxiliary-facts file and the scripts tree the
// pipeline stages execute.
//
// Resolution is explicit dependency injection: the caller supplies a source
// (local directory or a go-getter URL) or the configured default is used,
// once, at the call boundary. Nothing is cached as global state.
package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter"

	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/logger"
	"github.com/probs-lab/probs-runner/staging"
)

// Files the assets source must provide verbatim.
const (
	OntologyFileName       = "probs.fss"
	AdditionalInfoFileName = "additional_info.ttl"
)

// requiredStages are the script folders every assets source must carry.
var requiredStages = []staging.Stage{
	staging.StageShared,
	staging.StageConversion,
	staging.StageEnhancement,
	staging.StageValidation,
	staging.StageReasoning,
}

// Source is a resolved assets source. Release must be called when done; it
// is a no-op for local directories.
type Source struct {
	// Dir is the local directory holding the validated assets.
	Dir string

	fetched string
}

// Release removes any temporary directory created while fetching a remote
// source. Safe to call multiple times.
func (s *Source) Release() {
	if s.fetched != "" {
		if err := os.RemoveAll(s.fetched); err != nil {
			logger.Logger.Warnw("failed to remove fetched assets", "dir", s.fetched, "error", err)
		}
		s.fetched = ""
	}
}

// Resolve resolves an assets source location. An empty location falls back
// to defaultDir; having neither is a configuration error. A location naming an
// existing directory is used in place; anything else is treated as a
// go-getter URL (git, http, s3, archives) and fetched into a temporary
// directory owned by the returned Source.
func Resolve(ctx context.Context, location, defaultDir string) (*Source, error) {
	if location == "" {
		location = defaultDir
	}
	if location == "" {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"no assets source supplied and no default configured; "+
				"set assets.dir or pass an explicit source")
	}

	if info, err := os.Stat(location); err == nil {
		if !info.IsDir() {
			return nil, errors.Wrapf(errors.ErrConfiguration, "assets source %q is not a directory", location)
		}
		if err := Validate(location); err != nil {
			return nil, err
		}
		return &Source{Dir: location}, nil
	}

	if !looksRemote(location) {
		return nil, errors.Wrapf(errors.ErrConfiguration, "assets source %q not found", location)
	}

	dst, err := os.MkdirTemp("", "probs-assets-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create assets fetch directory")
	}
	logger.Logger.Infow("fetching assets", "source", location)

	client := &getter.Client{
		Ctx:  ctx,
		Src:  location,
		Dst:  dst,
		Mode: getter.ClientModeAny,
	}
	if err := client.Get(); err != nil {
		_ = os.RemoveAll(dst)
		return nil, errors.Wrapf(errors.ErrConfiguration, "failed to fetch assets from %q: %v", location, err)
	}

	if err := Validate(dst); err != nil {
		_ = os.RemoveAll(dst)
		return nil, err
	}
	return &Source{Dir: dst, fetched: dst}, nil
}

// Validate checks that dir provides every path the pipeline requires.
func Validate(dir string) error {
	var missing []string
	for _, name := range []string{OntologyFileName, AdditionalInfoFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	for _, stage := range requiredStages {
		scriptsDir := filepath.FromSlash(stage.ScriptsDir())
		if info, err := os.Stat(filepath.Join(dir, scriptsDir)); err != nil || !info.IsDir() {
			missing = append(missing, stage.ScriptsDir())
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrConfiguration,
			"assets source %q is missing required entries: %s", dir, strings.Join(missing, ", "))
	}
	return nil
}

// looksRemote reports whether location should be handed to go-getter rather than
// treated as a missing local path.
func looksRemote(location string) bool {
	return strings.Contains(location, "://") || strings.HasPrefix(location, "github.com/")
}
