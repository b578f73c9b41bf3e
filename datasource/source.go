package datasource

import (
	"io"
	"os"
	"strings"

	"github.com/probs-lab/probs-runner/errors"
)

// Source is one side of a staged-file binding: either a filesystem path to
// copy from, or an in-memory blob of text.
type Source struct {
	path    string
	text    string
	literal bool
}

// File returns a Source backed by a filesystem path.
func File(path string) Source {
	return Source{path: path}
}

// Literal returns an in-memory Source with the given content.
func Literal(text string) Source {
	return Source{text: text, literal: true}
}

// IsLiteral reports whether the source is an in-memory blob.
func (s Source) IsLiteral() bool { return s.literal }

// Path returns the filesystem path for file sources, or "" for literals.
func (s Source) Path() string { return s.path }

// Open returns a reader over the source content.
func (s Source) Open() (io.ReadCloser, error) {
	if s.literal {
		return io.NopCloser(strings.NewReader(s.text)), nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open staged source %q", s.path)
	}
	return f, nil
}

// identity is the stable byte string hashed into a datasource's staging
// namespace. File sources contribute their path, literals their content, so
// identical logical inputs always land in the same staged sub-folder.
func (s Source) identity() []byte {
	if s.literal {
		return []byte(s.text)
	}
	return []byte(s.path)
}

// Equal reports whether two sources denote the same path or content.
func (s Source) Equal(other Source) bool {
	return s == other
}

// Script is an optional script fragment supplied either literally or as a
// path to read. The zero value means "not supplied".
type Script struct {
	path string
	text string
	kind scriptKind
}

type scriptKind int

const (
	scriptNone scriptKind = iota
	scriptText
	scriptFile
)

// ScriptText returns a Script used literally.
func ScriptText(text string) Script {
	return Script{text: text, kind: scriptText}
}

// ScriptFile returns a Script read from the given path.
func ScriptFile(path string) Script {
	return Script{path: path, kind: scriptFile}
}

// IsZero reports whether no script was supplied.
func (s Script) IsZero() bool { return s.kind == scriptNone }

// resolve returns the script text, reading it from disk for file scripts.
func (s Script) resolve() (string, error) {
	switch s.kind {
	case scriptFile:
		content, err := os.ReadFile(s.path)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read script %q", s.path)
		}
		return string(content), nil
	case scriptText:
		return s.text, nil
	default:
		return "", nil
	}
}
