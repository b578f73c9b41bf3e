package datasource

import (
	"github.com/probs-lab/probs-runner/errors"
)

// FileMap is an ordered mapping from staged target path (relative to the
// engine working directory, slash-separated) to a Source. Insertion order is
// preserved; merging is order-sensitive.
type FileMap struct {
	targets []string
	sources map[string]Source
}

// NewFileMap returns an empty file map.
func NewFileMap() *FileMap {
	return &FileMap{sources: make(map[string]Source)}
}

// Add binds target to src, failing with a staging-collision error when the
// target is already present.
func (m *FileMap) Add(target string, src Source) error {
	if _, exists := m.sources[target]; exists {
		return errors.NewStagingCollisionError(target)
	}
	m.targets = append(m.targets, target)
	m.sources[target] = src
	return nil
}

// Set binds target to src, replacing any existing binding. A replaced
// binding keeps its position in the staging order. Used for the designated
// accumulator targets, never for datasource payloads.
func (m *FileMap) Set(target string, src Source) {
	if _, exists := m.sources[target]; !exists {
		m.targets = append(m.targets, target)
	}
	m.sources[target] = src
}

// Get returns the source bound to target.
func (m *FileMap) Get(target string) (Source, bool) {
	src, ok := m.sources[target]
	return src, ok
}

// Has reports whether target is bound.
func (m *FileMap) Has(target string) bool {
	_, ok := m.sources[target]
	return ok
}

// Targets returns the staged paths in insertion order.
func (m *FileMap) Targets() []string {
	return append([]string(nil), m.targets...)
}

// Len returns the number of bindings.
func (m *FileMap) Len() int {
	return len(m.targets)
}

// Clone returns an independent copy preserving order.
func (m *FileMap) Clone() *FileMap {
	clone := NewFileMap()
	for _, target := range m.targets {
		clone.targets = append(clone.targets, target)
		clone.sources[target] = m.sources[target]
	}
	return clone
}

// Equal reports whether two maps hold the same bindings in the same order.
func (m *FileMap) Equal(other *FileMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, target := range m.targets {
		if other.targets[i] != target {
			return false
		}
		if !m.sources[target].Equal(other.sources[target]) {
			return false
		}
	}
	return true
}
