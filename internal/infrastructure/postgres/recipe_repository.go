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

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo implementación de recetas e ítems sobre PostgreSQL (usable con pool o tx).
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

// GetByID obtiene una receta por ID. Devuelve (nil, nil) si no existe.
func (r *RecipeRepo) GetByID(ctx context.Context, id string) (*entity.Recipe, error) {
	query := `SELECT id, name, total_price, cost_version, created_at, updated_at FROM recipes WHERE id = $1`
	var rc entity.Recipe
	err := r.q.QueryRow(ctx, query, id).Scan(&rc.ID, &rc.Name, &rc.TotalPrice, &rc.CostVersion, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &rc, nil
}

// ListIDs lista los IDs de todas las recetas.
func (r *RecipeRepo) ListIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, `SELECT id FROM recipes ORDER BY id`)
}

// ListIDsByMaterial lista, sin repetir, las recetas que usan la materia prima.
func (r *RecipeRepo) ListIDsByMaterial(ctx context.Context, rawMaterialID string) ([]string, error) {
	return r.listIDs(ctx, `SELECT DISTINCT recipe_id FROM recipe_items WHERE raw_material_id = $1 ORDER BY recipe_id`, rawMaterialID)
}

func (r *RecipeRepo) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipe ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan recipe ids: %w", err)
	}
	return ids, nil
}

// ListItems lista los ítems de una receta.
func (r *RecipeRepo) ListItems(ctx context.Context, recipeID string) ([]*entity.RecipeItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, recipe_id, raw_material_id, quantity, unit_cost, total_cost
		FROM recipe_items WHERE recipe_id = $1 ORDER BY id`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list recipe items: %w", err)
	}
	defer rows.Close()
	var list []*entity.RecipeItem
	for rows.Next() {
		var it entity.RecipeItem
		if err := rows.Scan(&it.ID, &it.RecipeID, &it.RawMaterialID, &it.Quantity, &it.UnitCost, &it.TotalCost); err != nil {
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateItemCost guarda los costos cacheados de un ítem.
func (r *RecipeRepo) UpdateItemCost(ctx context.Context, item *entity.RecipeItem) error {
	_, err := r.q.Exec(ctx, `UPDATE recipe_items SET unit_cost = $2, total_cost = $3 WHERE id = $1`,
		item.ID, item.UnitCost, item.TotalCost)
	if err != nil {
		return fmt.Errorf("update recipe item cost: %w", err)
	}
	return nil
}

// UpdateTotalPrice guarda el total de la receta y devuelve su versión de costo.
// La versión solo avanza cuando el total cambia (o en el primer cálculo).
func (r *RecipeRepo) UpdateTotalPrice(ctx context.Context, recipeID string, total decimal.Decimal) (int64, error) {
	query := `
		UPDATE recipes SET
			cost_version = CASE
				WHEN total_price IS DISTINCT FROM $2 OR cost_version = 0 THEN cost_version + 1
				ELSE cost_version END,
			total_price = $2,
			updated_at = now()
		WHERE id = $1
		RETURNING cost_version`
	var version int64
	if err := r.q.QueryRow(ctx, query, recipeID, total).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("update recipe total: %w", err)
	}
	return version, nil
}
