package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.RawMaterialRepository = (*RawMaterialRepo)(nil)

// RawMaterialRepo implementación sobre PostgreSQL (usable con pool o tx).
type RawMaterialRepo struct {
	q Querier
}

// NewRawMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRawMaterialRepository(q Querier) *RawMaterialRepo {
	return &RawMaterialRepo{q: q}
}

// GetByID obtiene una materia prima por ID. Devuelve (nil, nil) si no existe.
func (r *RawMaterialRepo) GetByID(ctx context.Context, id string) (*entity.RawMaterial, error) {
	query := `
		SELECT id, name, unit, category, minimum_stock, current_stock, average_cost, created_at, updated_at
		FROM raw_materials WHERE id = $1`
	var m entity.RawMaterial
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Unit, &m.Category, &m.MinimumStock, &m.CurrentStock, &m.AverageCost,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get raw material: %w", err)
	}
	return &m, nil
}

// UpdateAverageCost guarda el costo promedio derivado de las recepciones aceptadas.
func (r *RawMaterialRepo) UpdateAverageCost(ctx context.Context, id string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE raw_materials SET average_cost = $2, updated_at = now() WHERE id = $1`, id, cost)
	if err != nil {
		return fmt.Errorf("update average cost: %w", err)
	}
	return nil
}
