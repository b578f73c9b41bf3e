package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/logger"
)

// Record is one query result row: a mapping from output variable name to a
// decoded value. Values are IRI, Blank, Unbound, or a native Go int64,
// float64, bool or string for typed literals.
type Record map[string]any

// IRI is a decoded resource identifier.
type IRI string

func (i IRI) String() string { return string(i) }

// Blank is a decoded blank-node label.
type Blank string

func (b Blank) String() string { return "_:" + string(b) }

// Unbound marks an optional projection with no binding in a row.
type Unbound struct{}

func (Unbound) String() string { return "<unbound>" }

// sparqlTerm is one term of a SPARQL JSON results binding.
type sparqlTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype"`
	Lang     string `json:"xml:lang"`
}

// XSD datatypes coerced to native Go values.
const xsdPrefix = "http://www.w3.org/2001/XMLSchema#"

// decode converts a term to its native value. Literals with numeric or
// boolean datatypes are coerced; anything unparseable stays a string.
func (t sparqlTerm) decode() any {
	switch t.Type {
	case "uri":
		return IRI(t.Value)
	case "bnode":
		return Blank(t.Value)
	}

	switch strings.TrimPrefix(t.Datatype, xsdPrefix) {
	case "integer", "int", "long", "short", "byte",
		"nonNegativeInteger", "positiveInteger", "unsignedInt", "unsignedLong":
		if n, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
			return n
		}
	case "double", "float", "decimal":
		if f, err := strconv.ParseFloat(t.Value, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(t.Value); err == nil {
			return b
		}
	}
	return t.Value
}

// NamedQuery binds a query name to its text.
type NamedQuery struct {
	Name string
	Text string
}

// Queries is an ordered collection of named query texts. Build with
// QueryList (synthetic integer names) or QueryMap (explicit names).
type Queries struct {
	entries []NamedQuery
}

// QueryList wraps bare query texts, naming them "0", "1", ... in order.
func QueryList(texts ...string) Queries {
	entries := make([]NamedQuery, len(texts))
	for i, text := range texts {
		entries[i] = NamedQuery{Name: strconv.Itoa(i), Text: text}
	}
	return Queries{entries: entries}
}

// QueryMap wraps named queries, preserving order. Duplicate names fail.
func QueryMap(entries ...NamedQuery) (Queries, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, duplicate := seen[entry.Name]; duplicate {
			return Queries{}, errors.NewValidationError("duplicate query name %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}
	return Queries{entries: append([]NamedQuery(nil), entries...)}, nil
}

// Len returns the number of queries.
func (q Queries) Len() int { return len(q.entries) }

// AnswerQueries submits every query to the ready session and returns the
// same-shape structure of typed records, keyed by query name. Record counts
// are dumped at debug level without altering the returned structure.
func AnswerQueries(ctx context.Context, s *Session, queries Queries) (map[string][]Record, error) {
	answers := make(map[string][]Record, queries.Len())
	for _, entry := range queries.entries {
		records, err := s.Query(ctx, entry.Text)
		if err != nil {
			return nil, errors.Wrapf(err, "query %q failed", entry.Name)
		}
		answers[entry.Name] = records
	}

	for _, entry := range queries.entries {
		logger.Logger.Debugw("query results",
			"query", entry.Name, "records", len(answers[entry.Name]))
	}
	return answers, nil
}

// FormatRecord renders a record for diagnostics, with stable field order
// following the given variable names.
func FormatRecord(record Record, vars []string) string {
	parts := make([]string, 0, len(vars))
	for _, name := range vars {
		parts = append(parts, fmt.Sprintf("%s=%v", name, record[name]))
	}
	return strings.Join(parts, " ")
}
