package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe es la lista de materiales (bill of materials) de un producto final.
// TotalPrice es un caché: solo coincide con la suma de TotalCost de sus ítems justo después de un recálculo.
// CostVersion avanza cuando un recálculo cambia el total; sirve para detectar productos finales desactualizados.
type Recipe struct {
	ID          string
	Name        string
	TotalPrice  decimal.Decimal
	CostVersion int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeItem pertenece a una sola receta y referencia una materia prima.
// UnitCost y TotalCost son cachés que quedan obsoletos hasta el próximo recálculo.
type RecipeItem struct {
	ID            string
	RecipeID      string
	RawMaterialID string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
}
