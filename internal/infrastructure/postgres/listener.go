package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

// BatchTable tabla de lotes observada por el trigger de notificación.
const BatchTable = "batch_manufacturing_records"

// ChangeListener escucha el canal LISTEN/NOTIFY que publica el trigger de lotes
// y entrega cada cambio como entity.BatchEvent.
type ChangeListener struct {
	pool       *pgxpool.Pool
	channel    string
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewChangeListener construye el listener sobre el canal indicado.
func NewChangeListener(pool *pgxpool.Pool, channel string, log zerolog.Logger) *ChangeListener {
	return &ChangeListener{pool: pool, channel: channel, retryDelay: 2 * time.Second, log: log}
}

// Listen publica eventos en out hasta que ctx se cancela. Cierra out al terminar.
// Si la conexión se pierde, reintenta; las notificaciones emitidas mientras tanto se pierden
// y deben recuperarse con Reactor.Reprocess.
func (l *ChangeListener) Listen(ctx context.Context, out chan<- entity.BatchEvent) error {
	defer close(out)
	for {
		err := l.listenOnce(ctx, out)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Error().Err(err).Str("channel", l.channel).Msg("listener de lotes desconectado, reintentando")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *ChangeListener) listenOnce(ctx context.Context, out chan<- entity.BatchEvent) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.Info().Str("channel", l.channel).Msg("escuchando cambios de lotes")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		ev, err := DecodeBatchChange([]byte(n.Payload))
		if err != nil {
			l.log.Warn().Err(err).Str("payload", truncate(n.Payload, 256)).Msg("notificación de lote descartada")
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type changePayload struct {
	Table string    `json:"table"`
	Type  string    `json:"type"`
	Old   *batchRow `json:"old"`
	New   *batchRow `json:"new"`
}

// DecodeBatchChange interpreta el payload {"table","type","old","new"} que publica el trigger.
// Solo acepta INSERT y UPDATE sobre la tabla de lotes con fila nueva.
func DecodeBatchChange(payload []byte) (entity.BatchEvent, error) {
	var p changePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return entity.BatchEvent{}, fmt.Errorf("%w: payload: %v", domain.ErrInvalidInput, err)
	}
	if p.Table != "" && p.Table != BatchTable {
		return entity.BatchEvent{}, fmt.Errorf("%w: tabla %q", domain.ErrInvalidInput, p.Table)
	}
	if p.Type != entity.ChangeInsert && p.Type != entity.ChangeUpdate {
		return entity.BatchEvent{}, fmt.Errorf("%w: tipo de cambio %q", domain.ErrInvalidInput, p.Type)
	}
	if p.New == nil || p.New.ID == "" {
		return entity.BatchEvent{}, fmt.Errorf("%w: fila nueva ausente", domain.ErrInvalidInput)
	}
	ev := entity.BatchEvent{Type: p.Type, New: p.New.toEntity()}
	if p.Old != nil {
		ev.Old = p.Old.toEntity()
	}
	return ev, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
