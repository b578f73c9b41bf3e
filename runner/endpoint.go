package runner

import (
	"context"

	"github.com/probs-lab/probs-runner/datasource"
	"github.com/probs-lab/probs-runner/engine"
	"github.com/probs-lab/probs-runner/pipeline"
)

// SessionFunc receives a ready endpoint session. The session is valid only
// until the function returns.
type SessionFunc func(*engine.Session) error

// serve drives an endpoint-producing shape, hands the ready session to fn
// and tears the session down when fn returns, panics included.
func serve(ctx context.Context, req pipeline.Request, sources []*datasource.Datasource, artifacts []string, opts Options, fn SessionFunc) (err error) {
	s, err := run(ctx, req, sources, artifacts, opts)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := s.Close()
		if err == nil {
			err = closeErr
		}
	}()
	return fn(s)
}

// Endpoint serves a query endpoint over existing enhanced-data artifacts
// for the duration of fn.
func Endpoint(ctx context.Context, artifacts []string, opts Options, fn SessionFunc) error {
	return serve(ctx, pipeline.Request{Shape: pipeline.ShapeEndpoint}, nil, artifacts, opts, fn)
}

// ConvertEndpoint converts the datasources and serves a query endpoint over
// the converted data, without enhancement, for the duration of fn.
func ConvertEndpoint(ctx context.Context, sources []*datasource.Datasource, opts Options, fn SessionFunc) error {
	return serve(ctx, pipeline.Request{Shape: pipeline.ShapeConvertEndpoint}, sources, nil, opts, fn)
}

// EnhanceEndpoint enhances existing converted-data artifacts and serves a
// query endpoint over the result for the duration of fn.
func EnhanceEndpoint(ctx context.Context, artifacts []string, opts Options, fn SessionFunc) error {
	return serve(ctx, pipeline.Request{Shape: pipeline.ShapeEnhanceEndpoint}, nil, artifacts, opts, fn)
}

// ConvertEnhanceEndpoint runs the full pipeline over the datasources and
// serves a query endpoint over the result for the duration of fn.
func ConvertEnhanceEndpoint(ctx context.Context, sources []*datasource.Datasource, opts Options, fn SessionFunc) error {
	return serve(ctx, pipeline.Request{Shape: pipeline.ShapeConvertEnhanceEndpoint}, sources, nil, opts, fn)
}

// AnswerQueries serves an endpoint over the artifacts just long enough to
// answer every query, returning the decoded records keyed by query name.
func AnswerQueries(ctx context.Context, artifacts []string, queries engine.Queries, opts Options) (map[string][]engine.Record, error) {
	var answers map[string][]engine.Record
	err := Endpoint(ctx, artifacts, opts, func(s *engine.Session) error {
		var queryErr error
		answers, queryErr = engine.AnswerQueries(ctx, s, queries)
		return queryErr
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}
