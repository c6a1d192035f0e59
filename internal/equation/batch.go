package equation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/network"
)

// BuildAll builds the equations of all reactions with at most workers
// concurrent builds (unbounded when workers <= 0). The result is index-aligned
// with reactions.
func (b *Builder) BuildAll(ctx context.Context, reactions []*network.Reaction, workers int) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building reaction equations.", "reactions", len(reactions), "workers", workers)

	out := make([]string, len(reactions))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, r := range reactions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = b.BuildReaction(gctx, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("Reaction equations built.", "count", len(out))
	return out, nil
}
