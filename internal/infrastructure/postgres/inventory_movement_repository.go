package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// Los movimientos son append-only: no hay Update ni Delete.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// CreateIfAbsent inserta el movimiento salvo que ya exista uno con la misma reference_key.
// Devuelve true si lo insertó.
func (r *InventoryMovementRepo) CreateIfAbsent(ctx context.Context, m *entity.InventoryMovement) (bool, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	notes := (*string)(nil)
	if m.Notes != "" {
		notes = &m.Notes
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements
			(id, inventory_id, type, quantity, previous_stock, new_stock, reference_id, reference_key, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (reference_key) DO NOTHING`,
		m.ID, m.InventoryID, m.Type, m.Quantity, m.PreviousStock, m.NewStock,
		m.ReferenceID, m.ReferenceKey, notes, m.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create inventory movement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByInventory lista los movimientos de un registro, del más reciente al más antiguo.
func (r *InventoryMovementRepo) ListByInventory(ctx context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, inventory_id, type, quantity, previous_stock, new_stock, reference_id, reference_key, notes, created_at
		FROM inventory_movements WHERE inventory_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, inventoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		var notes *string
		if err := rows.Scan(&m.ID, &m.InventoryID, &m.Type, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.ReferenceID, &m.ReferenceKey, &notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if notes != nil {
			m.Notes = *notes
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
