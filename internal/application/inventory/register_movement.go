package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// RegisterMovementUseCase aplica un cambio de stock con su movimiento de auditoría en una sola transacción,
// con bloqueo de fila (SELECT FOR UPDATE) sobre el registro de inventario.
// Idempotente por ReferenceKey: si el movimiento ya existe el stock no se toca.
type RegisterMovementUseCase struct {
	txRunner TxRunner
	now      func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner TxRunner) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{txRunner: txRunner, now: time.Now}
}

// MovementInput entrada para registrar un movimiento.
// El registro se busca por ProductName exacto; con FinalProduct=true solo entre productos finales.
// Si no existe y CreateIfMissing no es nil, se crea a partir de esa plantilla con stock 0.
type MovementInput struct {
	ProductName     string
	FinalProduct    bool
	CreateIfMissing *entity.InventoryRecord
	Type            string
	Quantity        decimal.Decimal // con signo
	ReferenceID     string
	ReferenceKey    string
	Notes           string
}

// MovementResult resultado de RegisterMovement. Applied=false indica que el movimiento ya existía.
type MovementResult struct {
	Applied  bool
	Created  bool // el registro de inventario se creó en esta llamada
	Record   *entity.InventoryRecord
	Movement *entity.InventoryMovement
}

// RegisterMovement bloquea el registro, aplica el delta con piso en 0 y guarda el movimiento.
// Devuelve domain.ErrNotFound si el registro no existe y no hay plantilla para crearlo.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.ProductName == "" || in.ReferenceKey == "" || in.Quantity.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	if !entity.IsValidMovementType(in.Type) {
		return nil, domain.ErrInvalidInput
	}

	var result *MovementResult
	err := uc.txRunner.Run(ctx, func(
		recordRepo repository.InventoryRecordRepository,
		movRepo repository.InventoryMovementRepository,
	) error {
		res, err := uc.apply(ctx, recordRepo, movRepo, in)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *RegisterMovementUseCase) apply(
	ctx context.Context,
	recordRepo repository.InventoryRecordRepository,
	movRepo repository.InventoryMovementRepository,
	in MovementInput,
) (*MovementResult, error) {
	now := uc.now()
	res := &MovementResult{}

	// Bloquea la fila para evitar la pérdida de actualizaciones entre eventos concurrentes
	var record *entity.InventoryRecord
	var err error
	if in.FinalProduct {
		record, err = recordRepo.GetFinalProductByNameForUpdate(ctx, in.ProductName)
	} else {
		record, err = recordRepo.GetByNameForUpdate(ctx, in.ProductName)
	}
	if err != nil {
		return nil, domain.RetrievalError("get inventory record", err)
	}
	if record == nil {
		if in.CreateIfMissing == nil {
			return nil, domain.ErrNotFound
		}
		tpl := *in.CreateIfMissing
		record = &tpl
		record.ID = uuid.New().String()
		record.ProductName = in.ProductName
		record.StockLevel = decimal.Zero
		record.IsFinalProduct = in.FinalProduct || tpl.IsFinalProduct
		record.CreatedAt = now
		record.UpdatedAt = now
		if err := recordRepo.Create(ctx, record); err != nil {
			return nil, domain.PersistenceError("create inventory record", err)
		}
		res.Created = true
	}

	prev := record.StockLevel
	next := record.ApplyDelta(in.Quantity)
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		InventoryID:   record.ID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		PreviousStock: prev,
		NewStock:      next,
		ReferenceID:   in.ReferenceID,
		ReferenceKey:  in.ReferenceKey,
		Notes:         in.Notes,
		CreatedAt:     now,
	}
	inserted, err := movRepo.CreateIfAbsent(ctx, mov)
	if err != nil {
		return nil, domain.PersistenceError("create inventory movement", err)
	}
	res.Record = record
	if !inserted {
		record.StockLevel = prev
		return res, nil
	}
	record.UpdatedAt = now
	if err := recordRepo.UpdateStockLevel(ctx, record); err != nil {
		return nil, domain.PersistenceError("update stock level", err)
	}
	res.Applied = true
	res.Movement = mov
	return res, nil
}

// IsNotFound indica si err corresponde a un registro de inventario inexistente.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
