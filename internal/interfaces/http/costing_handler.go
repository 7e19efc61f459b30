package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Costeo-api/internal/application/costing"
	"github.com/jhoicas/Costeo-api/internal/application/dto"
)

// CostingHandler expone el motor de costeo (protegido).
type CostingHandler struct {
	uc *costing.CostingUseCase
}

// NewCostingHandler construye el handler.
func NewCostingHandler(uc *costing.CostingUseCase) *CostingHandler {
	return &CostingHandler{uc: uc}
}

// AverageCost godoc
// @Summary      Costo promedio ponderado de una materia prima
// @Description  Calculado en vivo desde las recepciones aceptadas. 0 = sin recepciones.
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la materia prima"
// @Success      200  {object}  dto.AverageCostResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/costing/materials/{id}/average-cost [get]
func (h *CostingHandler) AverageCost(c *fiber.Ctx) error {
	id := c.Params("id")
	avg, err := h.uc.ComputeAverageCost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AverageCostResponse{RawMaterialID: id, AverageCost: avg})
}

// RecalculateMaterial godoc
// @Summary      Recalcular costos que dependen de una materia prima
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la materia prima"
// @Success      200  {object}  dto.RecalculationSummary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/costing/materials/{id}/recalculate [post]
func (h *CostingHandler) RecalculateMaterial(c *fiber.Ctx) error {
	sum, err := h.uc.UpdateCostsForMaterial(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}

// RecalculateRecipe godoc
// @Summary      Recalcular una receta y propagar a sus productos finales
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la receta"
// @Success      200  {object}  dto.RecalculationSummary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/costing/recipes/{id}/recalculate [post]
func (h *CostingHandler) RecalculateRecipe(c *fiber.Ctx) error {
	sum, err := h.uc.RecalculateRecipe(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}

// GetRecipe godoc
// @Summary      Desglose de costo almacenado de una receta
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la receta"
// @Success      200  {object}  dto.RecipeCostBreakdownDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/costing/recipes/{id} [get]
func (h *CostingHandler) GetRecipe(c *fiber.Ctx) error {
	out, err := h.uc.GetRecipeCostBreakdown(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RecalculateAll godoc
// @Summary      Recalcular todas las recetas y productos finales
// @Tags         costing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RecalculationSummary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/costing/recalculate [post]
func (h *CostingHandler) RecalculateAll(c *fiber.Ctx) error {
	sum, err := h.uc.UpdateAllCosts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}
