package manufacturing

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

// Run consume eventos hasta que ctx se cancela o events se cierra.
// workers limita cuántos eventos se procesan a la vez; con 1 se respeta el orden de llegada.
// Los errores de cada evento se registran y no detienen el ciclo.
func (r *Reactor) Run(ctx context.Context, events <-chan entity.BatchEvent, workers int) error {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for {
		select {
		case <-gctx.Done():
			_ = g.Wait()
			return nil
		case ev, ok := <-events:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				r.dispatch(gctx, ev)
				return nil
			})
		}
	}
}

func (r *Reactor) dispatch(ctx context.Context, ev entity.BatchEvent) {
	report, err := r.Handle(ctx, ev)
	if err != nil {
		r.log.Warn().Err(err).Str("type", ev.Type).Msg("evento de lote inválido, se descarta")
		return
	}
	r.log.Info().
		Str("type", ev.Type).
		Str("batch_id", report.BatchID).
		Int("consumed", report.Consumed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Bool("produced", report.Produced).
		Bool("adjusted", report.Adjusted).
		Msg("evento de lote procesado")
}
