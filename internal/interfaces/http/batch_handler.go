package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Costeo-api/internal/application/manufacturing"
)

// BatchHandler operaciones administrativas sobre lotes de producción.
type BatchHandler struct {
	reactor *manufacturing.Reactor
}

// NewBatchHandler construye el handler.
func NewBatchHandler(reactor *manufacturing.Reactor) *BatchHandler {
	return &BatchHandler{reactor: reactor}
}

// Reprocess godoc
// @Summary      Reaplicar un lote almacenado
// @Description  Completa los pasos de inventario que no se aplicaron (notificación perdida o fallo). Idempotente.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchReport
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/reprocess [post]
func (h *BatchHandler) Reprocess(c *fiber.Ctx) error {
	report, err := h.reactor.Reprocess(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
