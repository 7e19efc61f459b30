package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.FinalProductRepository = (*FinalProductRepo)(nil)

// FinalProductRepo implementación sobre PostgreSQL (usable con pool o tx).
type FinalProductRepo struct {
	q Querier
}

// NewFinalProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFinalProductRepository(q Querier) *FinalProductRepo {
	return &FinalProductRepo{q: q}
}

const finalProductColumns = `id, name, recipe_id, unit_price, recipe_cost, markup, profit_margin, profit_per_item,
	recipe_cost_version, created_at, updated_at`

// GetByID obtiene un producto final por ID. Devuelve (nil, nil) si no existe.
func (r *FinalProductRepo) GetByID(ctx context.Context, id string) (*entity.FinalProduct, error) {
	row := r.q.QueryRow(ctx, `SELECT `+finalProductColumns+` FROM final_products WHERE id = $1`, id)
	p, err := scanFinalProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get final product: %w", err)
	}
	return p, nil
}

// ListByRecipe lista los productos finales que usan la receta.
func (r *FinalProductRepo) ListByRecipe(ctx context.Context, recipeID string) ([]*entity.FinalProduct, error) {
	rows, err := r.q.Query(ctx, `SELECT `+finalProductColumns+` FROM final_products WHERE recipe_id = $1 ORDER BY name`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list final products by recipe: %w", err)
	}
	defer rows.Close()
	var list []*entity.FinalProduct
	for rows.Next() {
		p, err := scanFinalProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan final product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateCostFields guarda el costo de receta y las métricas derivadas. No toca unit_price.
func (r *FinalProductRepo) UpdateCostFields(ctx context.Context, p *entity.FinalProduct) error {
	_, err := r.q.Exec(ctx, `
		UPDATE final_products SET
			recipe_cost = $2, markup = $3, profit_margin = $4, profit_per_item = $5,
			recipe_cost_version = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.RecipeCost, p.Markup, p.ProfitMargin, p.ProfitPerItem, p.RecipeCostVersion,
	)
	if err != nil {
		return fmt.Errorf("update final product costs: %w", err)
	}
	return nil
}

func scanFinalProduct(row pgx.Row) (*entity.FinalProduct, error) {
	var p entity.FinalProduct
	if err := row.Scan(&p.ID, &p.Name, &p.RecipeID, &p.UnitPrice, &p.RecipeCost, &p.Markup, &p.ProfitMargin,
		&p.ProfitPerItem, &p.RecipeCostVersion, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
