package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Costeo-api/internal/application/dto"
	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// StockQueryUseCase consultas de solo lectura sobre inventario y movimientos.
type StockQueryUseCase struct {
	recordRepo repository.InventoryRecordRepository
	movRepo    repository.InventoryMovementRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(
	recordRepo repository.InventoryRecordRepository,
	movRepo repository.InventoryMovementRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{recordRepo: recordRepo, movRepo: movRepo}
}

// ListMovements devuelve el historial de un registro de inventario, más reciente primero.
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, inventoryID string, page dto.PageRequest) ([]dto.MovementDTO, error) {
	if inventoryID == "" {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	list, err := uc.movRepo.ListByInventory(ctx, inventoryID, page.Limit, page.Offset)
	if err != nil {
		return nil, domain.RetrievalError("list movements", err)
	}
	out := make([]dto.MovementDTO, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementDTO{
			ID:            m.ID,
			InventoryID:   m.InventoryID,
			Type:          m.Type,
			Quantity:      m.Quantity,
			PreviousStock: m.PreviousStock,
			NewStock:      m.NewStock,
			ReferenceID:   m.ReferenceID,
			Notes:         m.Notes,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

// ListLowStock devuelve los registros en o bajo su punto de reorden, mayor déficit primero.
func (uc *StockQueryUseCase) ListLowStock(ctx context.Context) ([]dto.LowStockDTO, error) {
	records, err := uc.recordRepo.ListBelowReorderPoint(ctx)
	if err != nil {
		return nil, domain.RetrievalError("list low stock", err)
	}
	out := make([]dto.LowStockDTO, 0, len(records))
	for _, r := range records {
		if !r.BelowReorderPoint() {
			continue
		}
		out = append(out, dto.LowStockDTO{
			InventoryID:    r.ID,
			ProductName:    r.ProductName,
			StockLevel:     r.StockLevel,
			ReorderPoint:   r.ReorderPoint,
			Unit:           r.Unit,
			IsFinalProduct: r.IsFinalProduct,
			Deficit:        r.ReorderPoint.Sub(r.StockLevel),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deficit.GreaterThan(out[j].Deficit)
	})
	return out, nil
}
