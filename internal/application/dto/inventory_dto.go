package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementDTO movimiento de inventario para listados.
type MovementDTO struct {
	ID            string          `json:"id"`
	InventoryID   string          `json:"inventory_id"`
	Type          string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LowStockDTO registro de inventario en o bajo su punto de reorden.
type LowStockDTO struct {
	InventoryID    string          `json:"inventory_id"`
	ProductName    string          `json:"product_name"`
	StockLevel     decimal.Decimal `json:"stock_level"`
	ReorderPoint   decimal.Decimal `json:"reorder_point"`
	Unit           string          `json:"unit"`
	IsFinalProduct bool            `json:"is_final_product"`
	Deficit        decimal.Decimal `json:"deficit"` // reorder_point - stock_level
}

// BatchReport resultado de procesar un evento de lote.
type BatchReport struct {
	BatchID  string `json:"batch_id"`
	Consumed int    `json:"consumed"` // movimientos manufacturing_consume aplicados
	Skipped  int    `json:"skipped"`  // ingredientes sin registro de inventario o ya aplicados
	Failed   int    `json:"failed"`   // pasos con error (registrados en log)
	Produced bool   `json:"produced"` // manufacturing_produce aplicado
	Adjusted bool   `json:"adjusted"` // manufacturing_adjust aplicado
}
