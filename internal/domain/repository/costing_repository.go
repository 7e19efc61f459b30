package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

// RawMaterialRepository define el puerto de persistencia para materias primas.
type RawMaterialRepository interface {
	GetByID(ctx context.Context, id string) (*entity.RawMaterial, error)
	UpdateAverageCost(ctx context.Context, id string, cost decimal.Decimal) error
}

// StockReceiptRepository define el puerto de persistencia para recepciones de materia prima.
type StockReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.StockReceipt) error
	GetByID(ctx context.Context, id string) (*entity.StockReceipt, error)
	// ListAcceptedByMaterial devuelve solo las recepciones con is_accepted = true.
	ListAcceptedByMaterial(ctx context.Context, rawMaterialID string) ([]*entity.StockReceipt, error)
	MarkAccepted(ctx context.Context, id string) error
}

// RecipeRepository define el puerto de persistencia para recetas y sus ítems.
type RecipeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Recipe, error)
	ListIDs(ctx context.Context) ([]string, error)
	// ListIDsByMaterial devuelve las recetas (sin duplicados) con al menos un ítem que usa la materia prima.
	ListIDsByMaterial(ctx context.Context, rawMaterialID string) ([]string, error)
	ListItems(ctx context.Context, recipeID string) ([]*entity.RecipeItem, error)
	UpdateItemCost(ctx context.Context, item *entity.RecipeItem) error
	// UpdateTotalPrice guarda el total e incrementa cost_version; devuelve la nueva versión.
	UpdateTotalPrice(ctx context.Context, recipeID string, total decimal.Decimal) (int64, error)
}

// FinalProductRepository define el puerto de persistencia para productos finales.
type FinalProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.FinalProduct, error)
	ListByRecipe(ctx context.Context, recipeID string) ([]*entity.FinalProduct, error)
	UpdateCostFields(ctx context.Context, product *entity.FinalProduct) error
}
