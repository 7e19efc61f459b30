package dto

import "github.com/shopspring/decimal"

// AverageCostResponse respuesta de GET /api/costing/materials/:id/average-cost.
type AverageCostResponse struct {
	RawMaterialID string          `json:"raw_material_id"`
	AverageCost   decimal.Decimal `json:"average_cost"` // sin redondear
}

// RecipeItemCostDTO costo cacheado de un ítem de receta.
type RecipeItemCostDTO struct {
	ItemID        string          `json:"item_id"`
	RawMaterialID string          `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// RecipeCostBreakdownDTO desglose del costo de una receta tal como está almacenado.
type RecipeCostBreakdownDTO struct {
	RecipeID    string              `json:"recipe_id"`
	Name        string              `json:"name"`
	TotalPrice  decimal.Decimal     `json:"total_price"`
	CostVersion int64               `json:"cost_version"`
	Items       []RecipeItemCostDTO `json:"items"`
	// Consistent indica si total_price coincide con la suma de los ítems cacheados.
	Consistent bool `json:"consistent"`
}

// RecalculationSummary resultado de un recálculo en cascada.
type RecalculationSummary struct {
	RecipesUpdated  int `json:"recipes_updated"`
	RecipesSkipped  int `json:"recipes_skipped"` // recetas sin ingredientes
	ProductsUpdated int `json:"products_updated"`
}

// Add acumula otro resumen.
func (s *RecalculationSummary) Add(o RecalculationSummary) {
	s.RecipesUpdated += o.RecipesUpdated
	s.RecipesSkipped += o.RecipesSkipped
	s.ProductsUpdated += o.ProductsUpdated
}

// RegisterReceiptRequest body para POST /api/receipts.
type RegisterReceiptRequest struct {
	RawMaterialID string          `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsAccepted    bool            `json:"is_accepted"`
}

// ReceiptResponse respuesta al registrar o aceptar una recepción.
type ReceiptResponse struct {
	ID            string                `json:"id"`
	RawMaterialID string                `json:"raw_material_id"`
	Quantity      decimal.Decimal       `json:"quantity"`
	UnitPrice     decimal.Decimal       `json:"unit_price"`
	IsAccepted    bool                  `json:"is_accepted"`
	AverageCost   *decimal.Decimal      `json:"average_cost,omitempty"`
	Recalculation *RecalculationSummary `json:"recalculation,omitempty"`
}
