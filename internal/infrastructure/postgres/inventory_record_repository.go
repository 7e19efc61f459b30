package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

// InventoryRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
// Los bloqueos FOR UPDATE solo tienen efecto dentro de una transacción.
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

const inventoryColumns = `id, product_name, stock_level, unit, is_final_product, is_recipe_based, reorder_point, created_at, updated_at`

// GetByName busca el registro de materia prima por nombre exacto. Nunca devuelve un producto final.
func (r *InventoryRecordRepo) GetByName(ctx context.Context, name string) (*entity.InventoryRecord, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory
		WHERE product_name = $1 AND NOT is_final_product`, name)
}

// GetByNameForUpdate como GetByName pero bloquea la fila (SELECT FOR UPDATE).
func (r *InventoryRecordRepo) GetByNameForUpdate(ctx context.Context, name string) (*entity.InventoryRecord, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory
		WHERE product_name = $1 AND NOT is_final_product
		FOR UPDATE`, name)
}

// GetFinalProductByNameForUpdate busca entre productos finales por nombre exacto y bloquea la fila.
func (r *InventoryRecordRepo) GetFinalProductByNameForUpdate(ctx context.Context, name string) (*entity.InventoryRecord, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory
		WHERE product_name = $1 AND is_final_product
		FOR UPDATE`, name)
}

func (r *InventoryRecordRepo) getOne(ctx context.Context, query, name string) (*entity.InventoryRecord, error) {
	rec, err := scanInventoryRecord(r.q.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

// Create persiste un registro de inventario. Un nombre repetido del mismo tipo devuelve domain.ErrConflict.
func (r *InventoryRecordRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory (`+inventoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.ProductName, rec.StockLevel, rec.Unit, rec.IsFinalProduct, rec.IsRecipeBased,
		rec.ReorderPoint, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create inventory record %q: %w", rec.ProductName, domain.ErrConflict)
		}
		return fmt.Errorf("create inventory record: %w", err)
	}
	return nil
}

// UpdateStockLevel guarda el nivel de stock.
func (r *InventoryRecordRepo) UpdateStockLevel(ctx context.Context, rec *entity.InventoryRecord) error {
	_, err := r.q.Exec(ctx, `UPDATE inventory SET stock_level = $2, updated_at = $3 WHERE id = $1`,
		rec.ID, rec.StockLevel, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	return nil
}

// ListBelowReorderPoint lista los registros con stock en o por debajo del punto de reorden.
func (r *InventoryRecordRepo) ListBelowReorderPoint(ctx context.Context) ([]*entity.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory
		WHERE stock_level <= reorder_point ORDER BY product_name`)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanInventoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func scanInventoryRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	if err := row.Scan(&rec.ID, &rec.ProductName, &rec.StockLevel, &rec.Unit, &rec.IsFinalProduct,
		&rec.IsRecipeBased, &rec.ReorderPoint, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
