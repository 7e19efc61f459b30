package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinalProduct es un producto terminado con precio de venta.
// RecipeCost, Markup, ProfitMargin y ProfitPerItem se derivan de RecipeCost (copiado de Recipe.TotalPrice) y UnitPrice.
type FinalProduct struct {
	ID                string
	Name              string
	RecipeID          *string // puede no tener receta
	UnitPrice         decimal.Decimal
	RecipeCost        decimal.Decimal
	Markup            decimal.Decimal // % sobre el costo
	ProfitMargin      decimal.Decimal // % sobre el precio de venta
	ProfitPerItem     decimal.Decimal
	RecipeCostVersion int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasRecipe indica si el producto está basado en una receta.
func (p *FinalProduct) HasRecipe() bool {
	return p.RecipeID != nil && *p.RecipeID != ""
}

// CostIsStale indica si los campos derivados se calcularon con una versión anterior del costo de la receta.
func (p *FinalProduct) CostIsStale(recipe *Recipe) bool {
	if recipe == nil {
		return false
	}
	return p.RecipeCostVersion != recipe.CostVersion
}
