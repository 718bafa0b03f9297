package search

import (
	"context"

	"github.com/fwojciec/xsdpack"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one name in a batch.
type BatchResult struct {
	Query    string
	Resolved bool
	Result   *xsdpack.ResolvedResult // nil unless Resolved
}

// BatchTypeQuery resolves many names against one built index.
type BatchTypeQuery struct {
	finder      xsdpack.Finder
	concurrency int
}

// BatchOption configures a BatchTypeQuery.
type BatchOption func(*BatchTypeQuery)

// WithConcurrency resolves names on up to n goroutines. The finder must
// be safe for concurrent reads. Defaults to 1.
func WithConcurrency(n int) BatchOption {
	return func(q *BatchTypeQuery) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

// NewBatchTypeQuery creates a batch query against finder.
func NewBatchTypeQuery(finder xsdpack.Finder, opts ...BatchOption) *BatchTypeQuery {
	q := &BatchTypeQuery{finder: finder, concurrency: 1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Execute resolves names and returns one result per name, in input order.
// Repeated names are resolved independently.
func (q *BatchTypeQuery) Execute(ctx context.Context, names []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(names))
	if q.concurrency <= 1 {
		for i, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = q.one(name)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = q.one(name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (q *BatchTypeQuery) one(name string) BatchResult {
	res, ok := q.finder.FindType(name)
	if !ok {
		return BatchResult{Query: name}
	}
	return BatchResult{Query: name, Resolved: true, Result: res}
}
