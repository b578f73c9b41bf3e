package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/logger"
)

// sparqlPath is the engine's query endpoint under the base URL.
const sparqlPath = "/datastores/default/sparql"

// Query submits one SPARQL query to the ready endpoint and returns the
// decoded records. The session's namespace table is prepended as PREFIX
// declarations, so queries can use the declared short names.
func (s *Session) Query(ctx context.Context, query string) ([]Record, error) {
	return s.QueryBindings(ctx, query, nil)
}

// QueryBindings submits a templated query with initial bindings: each entry
// is passed to the endpoint as an extra form parameter binding the named
// variable before evaluation.
func (s *Session) QueryBindings(ctx context.Context, query string, bindings map[string]string) ([]Record, error) {
	if s.State() != StateReady {
		return nil, errors.Wrapf(errors.ErrValidation,
			"session is %s, not ready for queries", s.State())
	}

	form := url.Values{}
	form.Set("query", s.namespaces.SPARQLPreamble()+query)
	for name, value := range bindings {
		form.Set("$"+name, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.endpointURL+sparqlPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrEngineRuntime, "query request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read query response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrEngineRuntime,
			"query failed with status %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	records, err := decodeResults(body)
	if err != nil {
		return nil, err
	}
	logger.Logger.Debugw("query answered", "session", s.id, "records", len(records))
	return records, nil
}

// decodeResults parses a SPARQL JSON results document into typed records.
func decodeResults(body []byte) ([]Record, error) {
	var doc struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
		Results struct {
			Bindings []map[string]sparqlTerm `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode query results")
	}

	records := make([]Record, 0, len(doc.Results.Bindings))
	for _, binding := range doc.Results.Bindings {
		record := make(Record, len(doc.Head.Vars))
		for _, name := range doc.Head.Vars {
			term, bound := binding[name]
			if !bound {
				record[name] = Unbound{}
				continue
			}
			record[name] = term.decode()
		}
		records = append(records, record)
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
