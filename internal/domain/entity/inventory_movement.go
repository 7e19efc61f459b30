package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
// El reactor de lotes solo emite ManufacturingConsume, ManufacturingProduce y ManufacturingAdjust.
const (
	MovementTypeReceive              = "receive"
	MovementTypeManufacturingConsume = "manufacturing_consume"
	MovementTypeManufacturingProduce = "manufacturing_produce"
	MovementTypeManufacturingAdjust  = "manufacturing_adjust"
	MovementTypeManualAdjustment     = "manual_adjustment"
	MovementTypeSale                 = "sale"
	MovementTypeWastage              = "wastage"
)

// IsValidMovementType indica si t es uno de los tipos enumerados.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeReceive, MovementTypeManufacturingConsume, MovementTypeManufacturingProduce,
		MovementTypeManufacturingAdjust, MovementTypeManualAdjustment, MovementTypeSale, MovementTypeWastage:
		return true
	}
	return false
}

// InventoryMovement es un registro de auditoría append-only: nunca se actualiza ni se borra.
// ReferenceKey es único en el almacén; permite que eventos repetidos no dupliquen el efecto.
type InventoryMovement struct {
	ID            string
	InventoryID   string
	Type          string
	Quantity      decimal.Decimal // con signo: negativo consume, positivo produce
	PreviousStock decimal.Decimal
	NewStock      decimal.Decimal
	ReferenceID   string // entidad que causó el movimiento (lote, recepción...)
	ReferenceKey  string
	Notes         string
	CreatedAt     time.Time
}
