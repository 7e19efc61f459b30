package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valores por defecto para registros de producto terminado creados por el reactor de lotes.
const (
	DefaultFinalProductUnit         = "bag"
	DefaultFinalProductReorderPoint = 5
)

// InventoryRecord es el stock actual de un artículo (materia prima o producto final).
// Se busca por nombre exacto (sensible a mayúsculas), no por clave foránea.
type InventoryRecord struct {
	ID             string
	ProductName    string
	StockLevel     decimal.Decimal
	Unit           string
	IsFinalProduct bool
	IsRecipeBased  bool
	ReorderPoint   decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyDelta suma delta al stock con piso en cero y devuelve el nuevo nivel.
func (r *InventoryRecord) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	next := r.StockLevel.Add(delta)
	if next.LessThan(decimal.Zero) {
		next = decimal.Zero
	}
	r.StockLevel = next
	return next
}

// BelowReorderPoint indica si el stock está en o por debajo del punto de reorden.
func (r *InventoryRecord) BelowReorderPoint() bool {
	return r.StockLevel.LessThanOrEqual(r.ReorderPoint)
}
