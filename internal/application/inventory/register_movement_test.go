package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Costeo-api/internal/application/dto"
	"github.com/jhoicas/Costeo-api/internal/application/inventory"
	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/testutil"
)

func consumeInput(name, qty, key string) inventory.MovementInput {
	return inventory.MovementInput{
		ProductName:  name,
		Type:         entity.MovementTypeManufacturingConsume,
		Quantity:     testutil.D(qty),
		ReferenceID:  "batch-1",
		ReferenceKey: key,
	}
}

func TestRegisterMovement_RestaYRegistraMovimiento(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddRecord("Harina", "20", false)
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())

	res, err := uc.RegisterMovement(context.Background(), consumeInput("Harina", "-5", "k1"))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "15", res.Record.StockLevel.String())

	movs := s.Movements(entity.MovementTypeManufacturingConsume)
	require.Len(t, movs, 1)
	assert.Equal(t, "-5", movs[0].Quantity.String())
	assert.Equal(t, "20", movs[0].PreviousStock.String())
	assert.Equal(t, "15", movs[0].NewStock.String())
}

func TestRegisterMovement_PisoEnCero(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddRecord("Harina", "3", false)
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())

	_, err := uc.RegisterMovement(context.Background(), consumeInput("Harina", "-10", "k1"))
	require.NoError(t, err)
	rec, _ := s.Record("Harina", false)
	assert.True(t, rec.StockLevel.IsZero(), "el stock nunca queda negativo")
}

func TestRegisterMovement_MismaClaveNoDuplica(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddRecord("Harina", "20", false)
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())
	ctx := context.Background()

	_, err := uc.RegisterMovement(ctx, consumeInput("Harina", "-5", "k1"))
	require.NoError(t, err)
	res, err := uc.RegisterMovement(ctx, consumeInput("Harina", "-5", "k1"))
	require.NoError(t, err)
	assert.False(t, res.Applied)

	rec, _ := s.Record("Harina", false)
	assert.Equal(t, "15", rec.StockLevel.String())
	assert.Len(t, s.Movements(""), 1)
}

func TestRegisterMovement_SinRegistro(t *testing.T) {
	s := testutil.NewMemStore()
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())

	_, err := uc.RegisterMovement(context.Background(), consumeInput("Inexistente", "-1", "k1"))
	assert.True(t, inventory.IsNotFound(err))
	assert.Empty(t, s.Movements(""))
}

func TestRegisterMovement_MateriaPrimaNoUsaProductoFinal(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddRecord("Pan dulce", "10", true)
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())

	_, err := uc.RegisterMovement(context.Background(), consumeInput("Pan dulce", "-4", "k1"))
	assert.True(t, inventory.IsNotFound(err))
	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "10", rec.StockLevel.String())
	assert.Empty(t, s.Movements(""))
}

func TestRegisterMovement_CreaDesdePlantilla(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddRecord("Pan", "50", false) // mismo nombre pero no es producto final
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())

	res, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		ProductName:     "Pan",
		FinalProduct:    true,
		CreateIfMissing: &entity.InventoryRecord{Unit: "bag", ReorderPoint: testutil.D("5")},
		Type:            entity.MovementTypeManufacturingProduce,
		Quantity:        testutil.D("4"),
		ReferenceKey:    "batch:1:produce",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	rec, ok := s.Record("Pan", true)
	require.True(t, ok)
	assert.Equal(t, "4", rec.StockLevel.String())
	assert.Equal(t, "bag", rec.Unit)
	other, _ := s.Record("Pan", false)
	assert.Equal(t, "50", other.StockLevel.String())
}

func TestRegisterMovement_FalloRevierte(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddRecord("Harina", "20", false)
	s.FailOn("records.UpdateStockLevel", errors.New("timeout"))
	uc := inventory.NewRegisterMovementUseCase(s.TxRunner())

	_, err := uc.RegisterMovement(context.Background(), consumeInput("Harina", "-5", "k1"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, s.Movements(""), "el movimiento se revierte junto con el stock")
}

func TestRegisterMovement_Validaciones(t *testing.T) {
	uc := inventory.NewRegisterMovementUseCase(testutil.NewMemStore().TxRunner())
	ctx := context.Background()

	_, err := uc.RegisterMovement(ctx, consumeInput("Harina", "0", "k"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.RegisterMovement(ctx, consumeInput("Harina", "-1", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	in := consumeInput("Harina", "-1", "k")
	in.Type = "OUT"
	_, err = uc.RegisterMovement(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockQuery(t *testing.T) {
	s := testutil.NewMemStore()
	id := s.AddRecord("Harina", "20", false)
	s.AddRecord("Sal", "1", false)
	mov := inventory.NewRegisterMovementUseCase(s.TxRunner())
	ctx := context.Background()
	for i, k := range []string{"a", "b", "c"} {
		_, err := mov.RegisterMovement(ctx, consumeInput("Harina", "-1", k))
		require.NoError(t, err, "movimiento %d", i)
	}
	q := inventory.NewStockQueryUseCase(s.RecordRepo(), s.MovementRepo())

	list, err := q.ListMovements(ctx, id, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "17", list[0].NewStock.String(), "más reciente primero")

	_, err = q.ListMovements(ctx, "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	low, err := q.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low, "punto de reorden 0: nada está bajo")
}
