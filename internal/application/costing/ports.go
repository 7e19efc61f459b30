package costing

import (
	"context"

	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// TxRunner ejecuta las escrituras de un recálculo dentro de una transacción.
// Los ítems, el total de la receta y los productos finales se actualizan todos o ninguno.
type TxRunner interface {
	RunCosting(ctx context.Context, fn func(
		recipeRepo repository.RecipeRepository,
		productRepo repository.FinalProductRepository,
	) error) error
}
