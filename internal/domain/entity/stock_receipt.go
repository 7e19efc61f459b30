package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockReceipt representa una recepción de materia prima. Inmutable una vez creada,
// salvo el paso de pendiente a aceptada.
// Solo las recepciones con IsAccepted=true participan en el costo promedio ponderado.
type StockReceipt struct {
	ID            string
	RawMaterialID string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	IsAccepted    bool
	ReceivedAt    time.Time
	CreatedAt     time.Time
	CreatedBy     string
}

// Total devuelve quantity × unit_price.
func (r StockReceipt) Total() decimal.Decimal {
	return r.Quantity.Mul(r.UnitPrice)
}
