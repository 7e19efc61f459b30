package repository

import (
	"context"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

// InventoryRecordRepository define el puerto para consultar/actualizar registros de inventario.
// Usado dentro de transacciones para garantizar consistencia.
type InventoryRecordRepository interface {
	// GetByName busca el registro de materia prima (no producto final) por nombre exacto. Devuelve (nil, nil) si no existe.
	GetByName(ctx context.Context, name string) (*entity.InventoryRecord, error)
	// GetFinalProductByNameForUpdate busca el registro de producto final (is_final_product = true)
	// y bloquea la fila (SELECT FOR UPDATE). Devuelve (nil, nil) si no existe.
	GetFinalProductByNameForUpdate(ctx context.Context, name string) (*entity.InventoryRecord, error)
	// GetByNameForUpdate igual que GetByName pero bloquea la fila.
	GetByNameForUpdate(ctx context.Context, name string) (*entity.InventoryRecord, error)
	Create(ctx context.Context, record *entity.InventoryRecord) error
	UpdateStockLevel(ctx context.Context, record *entity.InventoryRecord) error
	ListBelowReorderPoint(ctx context.Context) ([]*entity.InventoryRecord, error)
}

// InventoryMovementRepository define el puerto de persistencia para movimientos (append-only).
type InventoryMovementRepository interface {
	// CreateIfAbsent inserta el movimiento salvo que ya exista uno con el mismo ReferenceKey.
	// Devuelve true si se insertó.
	CreateIfAbsent(ctx context.Context, movement *entity.InventoryMovement) (bool, error)
	ListByInventory(ctx context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error)
}

// BatchRepository lectura de lotes (con sus ingredientes) para reprocesarlos.
type BatchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.BatchManufacturingRecord, error)
}

// UnitConversionRepository conversión kg/bolsa por producto final.
type UnitConversionRepository interface {
	Upsert(ctx context.Context, conv *entity.UnitConversion) error
}
