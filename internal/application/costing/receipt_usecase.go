package costing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/application/dto"
	"github.com/jhoicas/Costeo-api/internal/application/inventory"
	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// MovementRegistrar registra un movimiento de inventario (implementado por inventory.RegisterMovementUseCase).
type MovementRegistrar interface {
	RegisterMovement(ctx context.Context, in inventory.MovementInput) (*inventory.MovementResult, error)
}

// ReceiptUseCase flujo de recepción de materia prima: guarda la recepción y, si está aceptada,
// suma el stock (movimiento receive) y dispara el recálculo en cascada de costos.
type ReceiptUseCase struct {
	receiptRepo  repository.StockReceiptRepository
	materialRepo repository.RawMaterialRepository
	movements    MovementRegistrar
	costing      *CostingUseCase
	log          zerolog.Logger
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(
	receiptRepo repository.StockReceiptRepository,
	materialRepo repository.RawMaterialRepository,
	movements MovementRegistrar,
	costingUC *CostingUseCase,
	log zerolog.Logger,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		receiptRepo:  receiptRepo,
		materialRepo: materialRepo,
		movements:    movements,
		costing:      costingUC,
		log:          log,
	}
}

// Register crea una recepción. Cantidad > 0 y precio ≥ 0 obligatorios.
func (uc *ReceiptUseCase) Register(ctx context.Context, userID string, in dto.RegisterReceiptRequest) (*dto.ReceiptResponse, error) {
	if in.RawMaterialID == "" || !in.Quantity.GreaterThan(decimal.Zero) || in.UnitPrice.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	material, err := uc.materialRepo.GetByID(ctx, in.RawMaterialID)
	if err != nil {
		return nil, domain.RetrievalError("get raw material", err)
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	receipt := &entity.StockReceipt{
		ID:            uuid.New().String(),
		RawMaterialID: in.RawMaterialID,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		IsAccepted:    in.IsAccepted,
		ReceivedAt:    now,
		CreatedAt:     now,
		CreatedBy:     userID,
	}
	if err := uc.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, domain.PersistenceError("create stock receipt", err)
	}
	resp := toReceiptResponse(receipt)
	if !receipt.IsAccepted {
		return resp, nil
	}
	if err := uc.onAccepted(ctx, material, receipt, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Accept marca como aceptada una recepción pendiente. Devuelve ErrConflict si ya lo estaba.
func (uc *ReceiptUseCase) Accept(ctx context.Context, receiptID string) (*dto.ReceiptResponse, error) {
	receipt, err := uc.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return nil, domain.RetrievalError("get stock receipt", err)
	}
	if receipt == nil {
		return nil, domain.ErrNotFound
	}
	if receipt.IsAccepted {
		return nil, domain.ErrConflict
	}
	material, err := uc.materialRepo.GetByID(ctx, receipt.RawMaterialID)
	if err != nil {
		return nil, domain.RetrievalError("get raw material", err)
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.receiptRepo.MarkAccepted(ctx, receiptID); err != nil {
		return nil, domain.PersistenceError("accept stock receipt", err)
	}
	receipt.IsAccepted = true
	resp := toReceiptResponse(receipt)
	if err := uc.onAccepted(ctx, material, receipt, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// onAccepted suma el stock recibido y recalcula los costos que dependen de la materia prima.
// Un registro de inventario inexistente no bloquea el recálculo.
func (uc *ReceiptUseCase) onAccepted(ctx context.Context, material *entity.RawMaterial, receipt *entity.StockReceipt, resp *dto.ReceiptResponse) error {
	_, err := uc.movements.RegisterMovement(ctx, inventory.MovementInput{
		ProductName:  material.Name,
		Type:         entity.MovementTypeReceive,
		Quantity:     receipt.Quantity,
		ReferenceID:  receipt.ID,
		ReferenceKey: "receipt:" + receipt.ID + ":receive",
		Notes:        "recepción de " + material.Name,
	})
	if err != nil {
		if !inventory.IsNotFound(err) {
			return err
		}
		uc.log.Warn().
			Str("receipt_id", receipt.ID).
			Str("raw_material", material.Name).
			Msg("sin registro de inventario para la materia prima, stock no actualizado")
	}

	sum, err := uc.costing.UpdateCostsForMaterial(ctx, material.ID)
	if err != nil {
		return err
	}
	avg, err := uc.costing.ComputeAverageCost(ctx, material.ID)
	if err != nil {
		return err
	}
	resp.AverageCost = &avg
	resp.Recalculation = &sum
	return nil
}

func toReceiptResponse(r *entity.StockReceipt) *dto.ReceiptResponse {
	return &dto.ReceiptResponse{
		ID:            r.ID,
		RawMaterialID: r.RawMaterialID,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		IsAccepted:    r.IsAccepted,
	}
}
