// Package namespace defines the ordered prefix table declared to the engine
// and used to expand prefixed names in queries.
//
// The table preserves insertion order and merges with a documented override
// rule: caller-supplied entries take precedence over defaults, replacing them
// in place so the declared order stays stable across runs.
package namespace

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/probs-lab/probs-runner/errors"
)

// Well-known vocabulary IRIs.
const (
	PROBS  = "https://ukfires.org/probs/ontology/"
	System = "https://ukfires.org/probs/system/"
	RDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS   = "http://www.w3.org/2000/01/rdf-schema#"
)

// Prefix binds a prefix name to a namespace IRI. The empty name is the
// default namespace.
type Prefix struct {
	Name string
	IRI  string
}

// Table is an ordered prefix table. The zero value is empty and usable.
type Table struct {
	prefixes []Prefix
}

// Prefix names follow the Turtle PN_PREFIX shape, restricted to ASCII.
var prefixNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// New builds a table from the given prefixes, validating each entry.
func New(prefixes ...Prefix) (*Table, error) {
	t := &Table{}
	for _, p := range prefixes {
		if err := t.Set(p.Name, p.IRI); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Default returns the standard prefix table declared on every session.
func Default() *Table {
	return &Table{prefixes: []Prefix{
		{Name: "", IRI: PROBS},
		{Name: "sys", IRI: System},
		{Name: "rdf", IRI: RDF},
		{Name: "rdfs", IRI: RDFS},
	}}
}

// Set adds or replaces a prefix binding. A replaced binding keeps its
// original position in the declaration order.
func (t *Table) Set(name, iri string) error {
	if name != "" && !prefixNamePattern.MatchString(name) {
		return errors.NewValidationError("invalid namespace prefix %q", name)
	}
	u, err := url.Parse(iri)
	if err != nil || !u.IsAbs() {
		return errors.NewValidationError("namespace IRI for prefix %q is not an absolute IRI: %q", name, iri)
	}
	for i, p := range t.prefixes {
		if p.Name == name {
			t.prefixes[i].IRI = iri
			return nil
		}
	}
	t.prefixes = append(t.prefixes, Prefix{Name: name, IRI: iri})
	return nil
}

// Get returns the IRI bound to name.
func (t *Table) Get(name string) (string, bool) {
	for _, p := range t.prefixes {
		if p.Name == name {
			return p.IRI, true
		}
	}
	return "", false
}

// Merge returns a new table with overrides applied on top of t. Entries
// already present keep their position; new entries are appended in the
// override order.
func (t *Table) Merge(overrides *Table) *Table {
	merged := &Table{prefixes: append([]Prefix(nil), t.prefixes...)}
	if overrides == nil {
		return merged
	}
	for _, p := range overrides.prefixes {
		// Entries validated when overrides was built.
		replaced := false
		for i, existing := range merged.prefixes {
			if existing.Name == p.Name {
				merged.prefixes[i].IRI = p.IRI
				replaced = true
				break
			}
		}
		if !replaced {
			merged.prefixes = append(merged.prefixes, p)
		}
	}
	return merged
}

// Prefixes returns the bindings in declaration order.
func (t *Table) Prefixes() []Prefix {
	return append([]Prefix(nil), t.prefixes...)
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	return len(t.prefixes)
}

// SPARQLPreamble renders the table as SPARQL PREFIX declarations, one per
// line, in declaration order.
func (t *Table) SPARQLPreamble() string {
	var b strings.Builder
	for _, p := range t.prefixes {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.Name, p.IRI)
	}
	return b.String()
}
