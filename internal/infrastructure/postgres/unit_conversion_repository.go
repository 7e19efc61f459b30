package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.UnitConversionRepository = (*UnitConversionRepo)(nil)

// UnitConversionRepo relación kg por bolsa, una fila por producto final.
type UnitConversionRepo struct {
	q Querier
}

// NewUnitConversionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUnitConversionRepository(q Querier) *UnitConversionRepo {
	return &UnitConversionRepo{q: q}
}

// Upsert inserta o reemplaza la conversión del producto.
func (r *UnitConversionRepo) Upsert(ctx context.Context, c *entity.UnitConversion) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO unit_conversions (product_id, kg_per_bag, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET kg_per_bag = EXCLUDED.kg_per_bag, updated_at = EXCLUDED.updated_at`,
		c.ProductID, c.KgPerBag, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert unit conversion: %w", err)
	}
	return nil
}
