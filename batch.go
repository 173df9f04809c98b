package quadtree

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nequadtree/quadtree/geom"
)

// QueryBatch runs Query for every rectangle in rects concurrently and
// returns the results in the same order. At most GOMAXPROCS queries run at
// a time. It returns early with ctx.Err() if ctx is cancelled.
func (t *QuadTree) QueryBatch(ctx context.Context, rects []geom.Rect) ([][]geom.Point, error) {
	if t.root == nil {
		return nil, ErrNotBuilt
	}

	results := make([][]geom.Point, len(rects))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range rects {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ps, err := t.Query(rects[i])
			if err != nil {
				return err
			}
			results[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
