// Package costing implementa el motor de costeo: costo promedio ponderado de materias primas,
// recálculo del costo de recetas y propagación a los productos finales.
package costing

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/application/dto"
	"github.com/jhoicas/Costeo-api/internal/domain"
	costcalc "github.com/jhoicas/Costeo-api/internal/domain/costing"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// CostingUseCase motor de costeo en cascada: recepción → materia prima → receta → producto final.
// No guarda estado propio; todo se lee y escribe en el almacén.
type CostingUseCase struct {
	txRunner     TxRunner
	materialRepo repository.RawMaterialRepository
	receiptRepo  repository.StockReceiptRepository
	recipeRepo   repository.RecipeRepository
	productRepo  repository.FinalProductRepository
	log          zerolog.Logger
}

// NewCostingUseCase construye el caso de uso.
func NewCostingUseCase(
	txRunner TxRunner,
	materialRepo repository.RawMaterialRepository,
	receiptRepo repository.StockReceiptRepository,
	recipeRepo repository.RecipeRepository,
	productRepo repository.FinalProductRepository,
	log zerolog.Logger,
) *CostingUseCase {
	return &CostingUseCase{
		txRunner:     txRunner,
		materialRepo: materialRepo,
		receiptRepo:  receiptRepo,
		recipeRepo:   recipeRepo,
		productRepo:  productRepo,
		log:          log,
	}
}

// ComputeAverageCost devuelve el costo promedio ponderado de la materia prima.
// 0 significa "sin recepciones aceptadas"; un fallo de lectura devuelve ErrRetrieval, nunca 0.
func (uc *CostingUseCase) ComputeAverageCost(ctx context.Context, materialID string) (decimal.Decimal, error) {
	if materialID == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	receipts, err := uc.receiptRepo.ListAcceptedByMaterial(ctx, materialID)
	if err != nil {
		return decimal.Zero, domain.RetrievalError("list accepted receipts", err)
	}
	return costcalc.WeightedAverageCost(receipts), nil
}

// RecomputeRecipeCost recalcula unit_cost y total_cost de cada ítem y el total_price de la receta.
// Una receta sin ítems devuelve ErrNoRecipeItems sin escribir nada.
// Las escrituras van en una sola transacción; devuelve el total y la versión de costo resultante.
func (uc *CostingUseCase) RecomputeRecipeCost(ctx context.Context, recipeID string) (decimal.Decimal, int64, error) {
	if recipeID == "" {
		return decimal.Zero, 0, domain.ErrInvalidInput
	}
	items, err := uc.recipeRepo.ListItems(ctx, recipeID)
	if err != nil {
		return decimal.Zero, 0, domain.RetrievalError("list recipe items", err)
	}
	if len(items) == 0 {
		return decimal.Zero, 0, domain.ErrNoRecipeItems
	}

	// Lecturas primero: el promedio de cada materia prima se calcula una vez por recálculo.
	avgByMaterial := make(map[string]decimal.Decimal, len(items))
	total := decimal.Zero
	for _, item := range items {
		avg, ok := avgByMaterial[item.RawMaterialID]
		if !ok {
			avg, err = uc.ComputeAverageCost(ctx, item.RawMaterialID)
			if err != nil {
				return decimal.Zero, 0, err
			}
			avgByMaterial[item.RawMaterialID] = avg
		}
		total = total.Add(costcalc.PriceItem(item, avg))
	}

	var version int64
	err = uc.txRunner.RunCosting(ctx, func(recipeRepo repository.RecipeRepository, _ repository.FinalProductRepository) error {
		for _, item := range items {
			if err := recipeRepo.UpdateItemCost(ctx, item); err != nil {
				return domain.PersistenceError("update recipe item cost", err)
			}
		}
		v, err := recipeRepo.UpdateTotalPrice(ctx, recipeID, total)
		if err != nil {
			return domain.PersistenceError("update recipe total price", err)
		}
		version = v
		return nil
	})
	if err != nil {
		return decimal.Zero, 0, err
	}
	uc.log.Debug().
		Str("recipe_id", recipeID).
		Str("total_price", total.String()).
		Int64("cost_version", version).
		Int("items", len(items)).
		Msg("costo de receta recalculado")
	return total, version, nil
}

// PropagateToFinalProducts copia el total_price almacenado de la receta a cada producto final que la usa
// y deriva profit_per_item, markup y profit_margin. No recalcula la receta.
// Devuelve cuántos productos se actualizaron (0 si ninguno usa la receta).
func (uc *CostingUseCase) PropagateToFinalProducts(ctx context.Context, recipeID string) (int, error) {
	if recipeID == "" {
		return 0, domain.ErrInvalidInput
	}
	recipe, err := uc.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return 0, domain.RetrievalError("get recipe", err)
	}
	if recipe == nil {
		return 0, domain.ErrNotFound
	}
	products, err := uc.productRepo.ListByRecipe(ctx, recipeID)
	if err != nil {
		return 0, domain.RetrievalError("list final products by recipe", err)
	}
	if len(products) == 0 {
		return 0, nil
	}
	err = uc.txRunner.RunCosting(ctx, func(_ repository.RecipeRepository, productRepo repository.FinalProductRepository) error {
		for _, p := range products {
			costcalc.ComputeProductMetrics(recipe.TotalPrice, p.UnitPrice).Apply(p, recipe.CostVersion)
			if err := productRepo.UpdateCostFields(ctx, p); err != nil {
				return domain.PersistenceError("update final product cost", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// RecalculateRecipe ejecuta RecomputeRecipeCost y luego PropagateToFinalProducts.
// Una receta sin ítems se cuenta como omitida y no se propaga.
func (uc *CostingUseCase) RecalculateRecipe(ctx context.Context, recipeID string) (dto.RecalculationSummary, error) {
	var sum dto.RecalculationSummary
	if _, _, err := uc.RecomputeRecipeCost(ctx, recipeID); err != nil {
		if errors.Is(err, domain.ErrNoRecipeItems) {
			uc.log.Info().Str("recipe_id", recipeID).Msg("receta sin ingredientes, se omite")
			sum.RecipesSkipped = 1
			return sum, nil
		}
		return sum, err
	}
	sum.RecipesUpdated = 1
	n, err := uc.PropagateToFinalProducts(ctx, recipeID)
	if err != nil {
		return sum, err
	}
	sum.ProductsUpdated = n
	return sum, nil
}

// UpdateCostsForMaterial recalcula y propaga cada receta que usa la materia prima.
// También refresca el costo promedio cacheado en la materia prima.
func (uc *CostingUseCase) UpdateCostsForMaterial(ctx context.Context, materialID string) (dto.RecalculationSummary, error) {
	var sum dto.RecalculationSummary
	avg, err := uc.ComputeAverageCost(ctx, materialID)
	if err != nil {
		return sum, err
	}
	if err := uc.materialRepo.UpdateAverageCost(ctx, materialID, avg); err != nil {
		return sum, domain.PersistenceError("update raw material average cost", err)
	}
	recipeIDs, err := uc.recipeRepo.ListIDsByMaterial(ctx, materialID)
	if err != nil {
		return sum, domain.RetrievalError("list recipes by material", err)
	}
	for _, id := range dedupe(recipeIDs) {
		s, err := uc.RecalculateRecipe(ctx, id)
		if err != nil {
			return sum, err
		}
		sum.Add(s)
	}
	uc.log.Info().
		Str("raw_material_id", materialID).
		Str("average_cost", avg.String()).
		Int("recipes", sum.RecipesUpdated).
		Int("products", sum.ProductsUpdated).
		Msg("costos actualizados por materia prima")
	return sum, nil
}

// UpdateAllCosts recalcula y propaga todas las recetas. Resincronización administrativa completa.
// Se detiene en el primer error; relanzarlo sobrescribe los valores, por lo que es seguro reintentar.
func (uc *CostingUseCase) UpdateAllCosts(ctx context.Context) (dto.RecalculationSummary, error) {
	var sum dto.RecalculationSummary
	recipeIDs, err := uc.recipeRepo.ListIDs(ctx)
	if err != nil {
		return sum, domain.RetrievalError("list recipes", err)
	}
	for _, id := range recipeIDs {
		s, err := uc.RecalculateRecipe(ctx, id)
		if err != nil {
			return sum, err
		}
		sum.Add(s)
	}
	uc.log.Info().
		Int("recipes", sum.RecipesUpdated).
		Int("skipped", sum.RecipesSkipped).
		Int("products", sum.ProductsUpdated).
		Msg("recálculo completo de costos")
	return sum, nil
}

// GetRecipeCostBreakdown devuelve el costo cacheado de la receta y sus ítems, sin recalcular.
func (uc *CostingUseCase) GetRecipeCostBreakdown(ctx context.Context, recipeID string) (*dto.RecipeCostBreakdownDTO, error) {
	recipe, err := uc.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, domain.RetrievalError("get recipe", err)
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.recipeRepo.ListItems(ctx, recipeID)
	if err != nil {
		return nil, domain.RetrievalError("list recipe items", err)
	}
	out := &dto.RecipeCostBreakdownDTO{
		RecipeID:    recipe.ID,
		Name:        recipe.Name,
		TotalPrice:  recipe.TotalPrice,
		CostVersion: recipe.CostVersion,
		Items:       make([]dto.RecipeItemCostDTO, 0, len(items)),
	}
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalCost)
		out.Items = append(out.Items, toItemDTO(it))
	}
	out.Consistent = sum.Equal(recipe.TotalPrice)
	return out, nil
}

func toItemDTO(it *entity.RecipeItem) dto.RecipeItemCostDTO {
	return dto.RecipeItemCostDTO{
		ItemID:        it.ID,
		RawMaterialID: it.RawMaterialID,
		Quantity:      it.Quantity,
		UnitCost:      it.UnitCost,
		TotalCost:     it.TotalCost,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
