// Package costing contiene los servicios de dominio del costeo: costo promedio ponderado
// de materias primas, costo de ítems de receta y métricas de rentabilidad del producto final.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// MetricsPrecision decimales de markup, margen y ganancia por ítem al persistir.
const MetricsPrecision = 2

// WeightedAverageCost implementa el costo promedio ponderado por cantidad.
// Costo = Σ(cantidad_i × precio_i) / Σ(cantidad_i), solo sobre recepciones aceptadas.
// Sin recepciones aceptadas (o cantidad total ≤ 0) devuelve 0. No redondea.
func WeightedAverageCost(receipts []*entity.StockReceipt) decimal.Decimal {
	spend, qty := decimal.Zero, decimal.Zero
	for _, r := range receipts {
		if r == nil || !r.IsAccepted {
			continue
		}
		spend = spend.Add(r.Total())
		qty = qty.Add(r.Quantity)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return spend.Div(qty)
}

// PriceItem asigna unit_cost y total_cost = unit_cost × quantity al ítem y devuelve el total.
func PriceItem(item *entity.RecipeItem, unitCost decimal.Decimal) decimal.Decimal {
	item.UnitCost = unitCost
	item.TotalCost = unitCost.Mul(item.Quantity)
	return item.TotalCost
}

// ProductMetrics métricas derivadas de un producto final.
type ProductMetrics struct {
	RecipeCost    decimal.Decimal
	ProfitPerItem decimal.Decimal
	Markup        decimal.Decimal
	ProfitMargin  decimal.Decimal
}

// ComputeProductMetrics deriva ganancia, markup y margen a partir del costo de receta y el precio de venta.
// Si el divisor (costo o precio) es cero la métrica correspondiente es exactamente 0.
func ComputeProductMetrics(recipeCost, sellingPrice decimal.Decimal) ProductMetrics {
	profit := sellingPrice.Sub(recipeCost)
	m := ProductMetrics{
		RecipeCost:    recipeCost,
		ProfitPerItem: profit.Round(MetricsPrecision),
		Markup:        decimal.Zero,
		ProfitMargin:  decimal.Zero,
	}
	if recipeCost.GreaterThan(decimal.Zero) {
		m.Markup = profit.Div(recipeCost).Mul(hundred).Round(MetricsPrecision)
	}
	if sellingPrice.GreaterThan(decimal.Zero) {
		m.ProfitMargin = profit.Div(sellingPrice).Mul(hundred).Round(MetricsPrecision)
	}
	return m
}

// Apply copia las métricas al producto y registra la versión de costo de la receta usada.
func (m ProductMetrics) Apply(p *entity.FinalProduct, costVersion int64) {
	p.RecipeCost = m.RecipeCost
	p.ProfitPerItem = m.ProfitPerItem
	p.Markup = m.Markup
	p.ProfitMargin = m.ProfitMargin
	p.RecipeCostVersion = costVersion
}

// KgPerBag devuelve batch_size / bags_count. Con bags ≤ 0 devuelve batchSize.
func KgPerBag(batchSize decimal.Decimal, bags int) decimal.Decimal {
	if bags <= 0 {
		return batchSize
	}
	return batchSize.Div(decimal.NewFromInt(int64(bags)))
}
