// Package datasource defines the Datasource value type: one unit of loadable
// input for the conversion stage, combining a set of staged files with the
// load-script and mapping-rule fragments the engine needs to ingest them.
//
// Each datasource stages its files under a content-derived sub-folder of
// data/, so independently constructed datasources never collide and repeated
// constructions of the same logical input stage to the same paths.
package datasource

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/probs-lab/probs-runner/errors"
)

// DataDir is the staged directory holding all input data.
const DataDir = "data"

// Conventional file names recognized by Load.
const (
	LoadScriptFileName = "load_data.rdfox"
	RulesFileName      = "map.dlog"
)

// autoLoadSuffixes are the triple-serialization formats the engine imports
// without an explicit load script. Longest first so .nt.gz matches before .gz.
var autoLoadSuffixes = []string{".nt.gz", ".ttl.gz", ".nt", ".ttl"}

// dataFilePatterns are the input files Load picks up from a datasource
// directory.
var dataFilePatterns = []string{"*.csv", "*.ttl", "*.nt", "*.ttl.gz", "*.nt.gz"}

// Datasource is an immutable bundle of input files plus the instruction text
// the engine executes to ingest them. Construct with FromFacts, FromFiles or
// Load; treat as read-only afterwards.
type Datasource struct {
	// InputFiles binds staged target paths to their sources.
	InputFiles *FileMap
	// LoadDataScript is the engine instruction text that imports the files.
	LoadDataScript string
	// Rules is the optional derivation/mapping rule text.
	Rules string

	name string
}

// Name returns the content-derived staging identifier of the datasource.
func (d *Datasource) Name() string { return d.name }

// Equal reports whether two datasources have identical staged files and
// instruction text.
func (d *Datasource) Equal(other *Datasource) bool {
	return d.LoadDataScript == other.LoadDataScript &&
		d.Rules == other.Rules &&
		d.InputFiles.Equal(other.InputFiles)
}

// FromFacts creates a datasource from literal triples. The staged file name
// is derived from a hash of the text, so identical facts always stage to the
// same path and can be merged safely.
func FromFacts(facts string) *Datasource {
	hash := md5Hex([]byte(facts))
	name := hash + ".ttl"

	files := NewFileMap()
	// Single synthetic file; Add cannot collide in a fresh map.
	_ = files.Add(path.Join(DataDir, name), Literal(facts))

	return &Datasource{
		InputFiles:     files,
		LoadDataScript: fmt.Sprintf("import %s\n", name),
		name:           hash,
	}
}

// NamedFile binds a staged file name to its source.
type NamedFile struct {
	Name   string
	Source Source
}

// InputFiles is the resolved, ordered set of files for one datasource.
// Build with Files (bare paths, named after their base name) or NamedFiles
// (explicit target names).
type InputFiles struct {
	entries []NamedFile
}

// Files builds an input set from source paths, naming each staged file after
// the source's own file name. Two sources sharing a base name cannot be
// disambiguated this way and fail immediately.
func Files(paths ...string) (InputFiles, error) {
	var in InputFiles
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if prev, duplicate := seen[name]; duplicate {
			return InputFiles{}, errors.NewValidationError(
				"duplicate file name %q (from %q and %q); use NamedFiles to give explicit names",
				name, prev, p)
		}
		seen[name] = p
		in.entries = append(in.entries, NamedFile{Name: name, Source: File(p)})
	}
	return in, nil
}

// NamedFiles builds an input set with explicit staged names.
func NamedFiles(entries ...NamedFile) InputFiles {
	return InputFiles{entries: append([]NamedFile(nil), entries...)}
}

// FromFiles creates a datasource from the given input files.
//
// The files are staged under data/<id>/ where <id> is a hash over the source
// identities, so the staged location is stable across constructions of the
// same inputs and distinct for different inputs. The load script sees that
// location through the engine variable dir.datasource, bound by a generated
// set directive prefixed to the script text.
//
// When loadScript is the zero Script, an import script is generated
// automatically, but only if every input is a recognized triple format;
// otherwise the call fails naming the offending extensions. Rules default to
// empty.
func FromFiles(inputs InputFiles, loadScript, rules Script) (*Datasource, error) {
	if len(inputs.entries) == 0 {
		return nil, errors.NewValidationError("datasource has no input files")
	}

	hasher := md5.New()
	for _, entry := range inputs.entries {
		hasher.Write(entry.Source.identity())
	}
	name := hex.EncodeToString(hasher.Sum(nil))

	files := NewFileMap()
	for _, entry := range inputs.entries {
		if err := files.Add(path.Join(DataDir, name, entry.Name), entry.Source); err != nil {
			return nil, errors.Wrapf(err, "within datasource %s", name)
		}
	}

	scriptText, err := loadScript.resolve()
	if err != nil {
		return nil, err
	}
	if loadScript.IsZero() {
		scriptText, err = autoLoadScript(inputs.entries)
		if err != nil {
			return nil, err
		}
	}

	// Bind dir.datasource so relative references in the script resolve to
	// this datasource's staged folder however many others are merged in.
	dirSetup := fmt.Sprintf("set dir.datasource \"$(dir.root)/%s/%s/\"", DataDir, name)
	scriptText = dirSetup + "\n" + scriptText

	rulesText, err := rules.resolve()
	if err != nil {
		return nil, err
	}

	return &Datasource{
		InputFiles:     files,
		LoadDataScript: scriptText,
		Rules:          rulesText,
		name:           name,
	}, nil
}

// autoLoadScript generates import statements for inputs that are all in
// recognized triple formats.
func autoLoadScript(entries []NamedFile) (string, error) {
	unsupported := make(map[string]struct{})
	for _, entry := range entries {
		if !hasAutoLoadSuffix(entry.Name) {
			ext := path.Ext(entry.Name)
			if ext == "" {
				ext = entry.Name
			}
			unsupported[ext] = struct{}{}
		}
	}
	if len(unsupported) > 0 {
		exts := make([]string, 0, len(unsupported))
		for ext := range unsupported {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		return "", errors.NewValidationError(
			"no load script given, and cannot automatically load %s files",
			strings.Join(exts, ", "))
	}

	lines := []string{"# Auto generated to load triple files"}
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("import \"$(dir.datasource)/%s\"", entry.Name))
	}
	return strings.Join(lines, "\n"), nil
}

func hasAutoLoadSuffix(name string) bool {
	for _, suffix := range autoLoadSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Load creates a datasource from a conventional directory layout: an
// optional load_data.rdfox, an optional map.dlog, and any recognized
// tabular or triple files.
func Load(dir string) (*Datasource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrValidation, "datasource directory %q not found", dir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrValidation, "not a directory: %q", dir)
	}

	var loadScript Script
	if fileExists(filepath.Join(dir, LoadScriptFileName)) {
		loadScript = ScriptFile(filepath.Join(dir, LoadScriptFileName))
	}
	var rules Script
	if fileExists(filepath.Join(dir, RulesFileName)) {
		rules = ScriptFile(filepath.Join(dir, RulesFileName))
	}

	var paths []string
	for _, pattern := range dataFilePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "bad data file pattern %q", pattern)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, errors.NewValidationError("no data files found in datasource directory %q", dir)
	}

	inputs, err := Files(paths...)
	if err != nil {
		return nil, err
	}
	return FromFiles(inputs, loadScript, rules)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
