package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchManufacturingRecord es una corrida de producción: consume materias primas y produce bolsas de un producto final.
// Estados: creado (BatchFinished nil) → terminado (BatchFinished no nil).
type BatchManufacturingRecord struct {
	ID            string
	ProductID     string // FinalProduct
	BatchSize     decimal.Decimal
	BagsCount     *int
	BatchStarted  *time.Time
	BatchFinished *time.Time
	Ingredients   []BatchIngredient
	Revision      int64 // sube en cada UPDATE de la fila
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BatchIngredient materia prima consumida por un lote.
type BatchIngredient struct {
	RawMaterialID string
	Quantity      decimal.Decimal
}

// IsFinished indica si el lote ya terminó.
func (b *BatchManufacturingRecord) IsFinished() bool {
	return b != nil && b.BatchFinished != nil
}

// Bags devuelve BagsCount o 1 si no está definido.
func (b *BatchManufacturingRecord) Bags() int {
	if b.BagsCount == nil {
		return 1
	}
	return *b.BagsCount
}

// Tipos de evento de cambio observados sobre la tabla de lotes.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
)

// BatchEvent notificación de cambio {old, new} de un lote. Old es nil en INSERT.
type BatchEvent struct {
	Type string
	Old  *BatchManufacturingRecord
	New  *BatchManufacturingRecord
}

// UnitConversion relación kg por bolsa de un producto final, indexada por producto.
type UnitConversion struct {
	ProductID string
	KgPerBag  decimal.Decimal
	UpdatedAt time.Time
}
