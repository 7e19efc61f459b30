package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMaterial representa una materia prima (insumo) comprada a proveedores.
// AverageCost es derivado: se recalcula desde las recepciones aceptadas y no es la fuente de verdad.
type RawMaterial struct {
	ID           string
	Name         string
	Unit         string
	Category     string
	MinimumStock decimal.Decimal
	CurrentStock decimal.Decimal
	AverageCost  decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
