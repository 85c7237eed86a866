package gotensor

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExpandBatch expands independent trees concurrently with at most workers
// goroutines and returns the results in input order. The first index or
// arithmetic fault cancels the remaining work and is returned.
func ExpandBatch(ctx context.Context, exprs []Expr, workers int, rules ...Transformation) ([]Expr, error) {
	return defaultExpander.ExpandBatch(ctx, exprs, workers, rules...)
}

func (x *Expander) ExpandBatch(ctx context.Context, exprs []Expr, workers int, rules ...Transformation) ([]Expr, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]Expr, len(exprs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range exprs {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var res Expr
			if err := Try(func() { res = x.Expand(e, rules...) }); err != nil {
				x.logger.Debug("batch expansion failed", zap.Int("item", i), zap.Error(err))
				return fmt.Errorf("expression %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
