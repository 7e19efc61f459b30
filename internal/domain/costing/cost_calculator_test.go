package costing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Costeo-api/internal/domain/costing"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func receipt(qty, price string, accepted bool) *entity.StockReceipt {
	return &entity.StockReceipt{Quantity: d(qty), UnitPrice: d(price), IsAccepted: accepted}
}

func TestWeightedAverageCost_SinRecepcionesEsCero(t *testing.T) {
	assert.True(t, costing.WeightedAverageCost(nil).IsZero())
	assert.True(t, costing.WeightedAverageCost([]*entity.StockReceipt{}).IsZero())
}

func TestWeightedAverageCost_UnaRecepcionEsSuPrecio(t *testing.T) {
	got := costing.WeightedAverageCost([]*entity.StockReceipt{receipt("7", "3.25", true)})
	assert.True(t, got.Equal(d("3.25")), "got %s", got)
}

func TestWeightedAverageCost_PonderadoPorCantidad(t *testing.T) {
	// (10×1 + 30×2) / 40 = 70/40 = 1.75 (la media simple sería 1.5)
	got := costing.WeightedAverageCost([]*entity.StockReceipt{
		receipt("10", "1", true),
		receipt("30", "2", true),
	})
	assert.True(t, got.Equal(d("1.75")), "got %s", got)
}

func TestWeightedAverageCost_IgnoraNoAceptadas(t *testing.T) {
	base := []*entity.StockReceipt{receipt("4", "2.5", true), receipt("6", "3", true)}
	before := costing.WeightedAverageCost(base)
	after := costing.WeightedAverageCost(append(base, receipt("1000", "99", false)))
	assert.True(t, before.Equal(after))
	assert.True(t, before.Equal(d("2.8")), "got %s", before)
}

func TestWeightedAverageCost_SoloNoAceptadasEsCero(t *testing.T) {
	got := costing.WeightedAverageCost([]*entity.StockReceipt{receipt("5", "10", false)})
	assert.True(t, got.IsZero())
}

func TestPriceItem(t *testing.T) {
	item := &entity.RecipeItem{Quantity: d("3")}
	total := costing.PriceItem(item, d("2.00"))
	assert.True(t, total.Equal(d("6")))
	assert.True(t, item.UnitCost.Equal(d("2")))
	assert.True(t, item.TotalCost.Equal(d("6")))
}

func TestComputeProductMetrics(t *testing.T) {
	m := costing.ComputeProductMetrics(d("9.00"), d("12.00"))
	assert.Equal(t, "3", m.ProfitPerItem.String())
	assert.Equal(t, "33.33", m.Markup.String())
	assert.Equal(t, "25", m.ProfitMargin.String())
	assert.True(t, m.RecipeCost.Equal(d("9")))
}

func TestComputeProductMetrics_DivisoresEnCero(t *testing.T) {
	m := costing.ComputeProductMetrics(decimal.Zero, d("12"))
	assert.True(t, m.Markup.IsZero(), "costo 0 ⇒ markup 0")
	assert.Equal(t, "100", m.ProfitMargin.String())

	m = costing.ComputeProductMetrics(d("5"), decimal.Zero)
	assert.True(t, m.ProfitMargin.IsZero(), "precio 0 ⇒ margen 0")
	assert.Equal(t, "-100", m.Markup.String())

	m = costing.ComputeProductMetrics(decimal.Zero, decimal.Zero)
	assert.True(t, m.Markup.IsZero())
	assert.True(t, m.ProfitMargin.IsZero())
	assert.True(t, m.ProfitPerItem.IsZero())
}

func TestProductMetricsApply(t *testing.T) {
	p := &entity.FinalProduct{UnitPrice: d("12")}
	costing.ComputeProductMetrics(d("9"), p.UnitPrice).Apply(p, 4)
	assert.Equal(t, int64(4), p.RecipeCostVersion)
	assert.Equal(t, "33.33", p.Markup.String())
	assert.False(t, p.CostIsStale(&entity.Recipe{CostVersion: 4}))
	assert.True(t, p.CostIsStale(&entity.Recipe{CostVersion: 5}))
}

func TestKgPerBag(t *testing.T) {
	assert.Equal(t, "12.5", costing.KgPerBag(d("50"), 4).String())
	assert.Equal(t, "50", costing.KgPerBag(d("50"), 0).String())
}
