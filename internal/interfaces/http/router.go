package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Costeo-api/internal/application/costing"
	"github.com/jhoicas/Costeo-api/internal/application/inventory"
	"github.com/jhoicas/Costeo-api/internal/application/manufacturing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CostingUC  *costing.CostingUseCase
	ReceiptUC  *costing.ReceiptUseCase
	StockQuery *inventory.StockQueryUseCase
	Reactor    *manufacturing.Reactor
	JWTSecret  string
	JWTIssuer  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	adminOnly := RequireRole(RoleAdmin)

	// Costeo
	costingGroup := api.Group("/costing")
	costingHandler := NewCostingHandler(deps.CostingUC)
	costingGroup.Get("/materials/:id/average-cost", costingHandler.AverageCost)
	costingGroup.Post("/materials/:id/recalculate", adminOnly, costingHandler.RecalculateMaterial)
	costingGroup.Get("/recipes/:id", costingHandler.GetRecipe)
	costingGroup.Post("/recipes/:id/recalculate", adminOnly, costingHandler.RecalculateRecipe)
	costingGroup.Post("/recalculate", adminOnly, costingHandler.RecalculateAll)

	// Recepciones de materia prima
	receipts := api.Group("/receipts")
	receiptHandler := NewReceiptHandler(deps.ReceiptUC)
	receipts.Post("/", RequireRole(RoleAdmin, RoleProduccion), receiptHandler.Create)
	receipts.Post("/:id/accept", adminOnly, receiptHandler.Accept)

	// Inventario (solo lectura)
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.StockQuery)
	invGroup.Get("/low-stock", inventoryHandler.ListLowStock)
	invGroup.Get("/:id/movements", inventoryHandler.ListMovements)

	// Lotes
	batches := api.Group("/batches")
	batchHandler := NewBatchHandler(deps.Reactor)
	batches.Post("/:id/reprocess", adminOnly, batchHandler.Reprocess)
}
