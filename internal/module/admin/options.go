package admin

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mahabub-bd/purepac-admin/internal/resource"
)

// maxReferenceFetches bounds concurrent reference loads per request.
const maxReferenceFetches = 4

// loadOptions fetches the option lists of refs concurrently. A failed
// reference logs a warning and yields no options; the screen still renders.
func (h *Handler) loadOptions(ctx context.Context, refs []resource.Reference) map[resource.Reference][]resource.Option {
	out := make(map[resource.Reference][]resource.Option, len(refs))
	if len(refs) == 0 {
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxReferenceFetches)
	for _, ref := range refs {
		g.Go(func() error {
			records, err := h.backend.Reference(gctx, ref.Endpoint)
			if err != nil {
				h.logger.WarnContext(ctx, "reference load failed",
					slog.String("endpoint", ref.Endpoint),
					slog.Any("error", err),
				)
				return nil
			}
			opts := make([]resource.Option, 0, len(records))
			for _, rec := range records {
				value := rec.String(ref.ValueField)
				if value == "" {
					continue
				}
				label := rec.String(ref.LabelField)
				if label == "" {
					label = value
				}
				opts = append(opts, resource.Option{Value: value, Label: label})
			}
			mu.Lock()
			out[ref] = opts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
