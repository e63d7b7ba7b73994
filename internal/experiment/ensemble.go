package experiment

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// Ensemble runs independent experiments concurrently. Each experiment owns
// its model, so runs share no state.
type Ensemble struct {
	workers int
}

// NewEnsemble limits concurrency to workers; zero or less means one per CPU.
func NewEnsemble(workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Ensemble{workers: workers}
}

// Run returns results in the order of exps. The first failure cancels the
// runs that have not started yet.
func (e *Ensemble) Run(ctx context.Context, exps []*Experiment) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(exps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, exp := range exps {
		g.Go(func() error {
			res, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
