package manufacturing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/Costeo-api/internal/application/inventory"
	"github.com/jhoicas/Costeo-api/internal/application/manufacturing"
	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newReactor(s *testutil.MemStore) *manufacturing.Reactor {
	return manufacturing.NewReactor(
		inventory.NewRegisterMovementUseCase(s.TxRunner()),
		s.MaterialRepo(), s.ProductRepo(), s.ConversionRepo(), s.BatchRepo(),
		manufacturing.DefaultReactorConfig(), zerolog.Nop(),
	)
}

func intp(n int) *int { return &n }

func seed(s *testutil.MemStore) {
	s.AddMaterial("mat-x", "Harina")
	s.AddMaterial("mat-y", "Azúcar")
	s.AddRecord("Harina", "20", false)
	s.AddRecipe("rec-1", "Pan")
	s.AddProduct("prod-1", "Pan dulce", "rec-1", "12")
}

func batch(finished bool, bags *int) *entity.BatchManufacturingRecord {
	b := &entity.BatchManufacturingRecord{
		ID:          "batch-1",
		ProductID:   "prod-1",
		BatchSize:   testutil.D("50"),
		BagsCount:   bags,
		Ingredients: []entity.BatchIngredient{{RawMaterialID: "mat-x", Quantity: testutil.D("5")}},
	}
	if finished {
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		b.BatchFinished = &now
	}
	return b
}

func TestHandleInsert_ConsumeIngredientes(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)

	report := newReactor(s).HandleInsert(context.Background(), batch(false, intp(4)))
	assert.Equal(t, 1, report.Consumed)
	assert.False(t, report.Produced)

	rec, _ := s.Record("Harina", false)
	assert.Equal(t, "15", rec.StockLevel.String())
	movs := s.Movements(entity.MovementTypeManufacturingConsume)
	require.Len(t, movs, 1)
	assert.Equal(t, "-5", movs[0].Quantity.String())
	assert.Equal(t, "batch-1", movs[0].ReferenceID)
	assert.Empty(t, s.Movements(entity.MovementTypeManufacturingProduce))
}

func TestHandleInsert_ConsumoNoBajaDeCero(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	b := batch(false, nil)
	b.Ingredients[0].Quantity = testutil.D("500")

	newReactor(s).HandleInsert(context.Background(), b)
	rec, _ := s.Record("Harina", false)
	assert.True(t, rec.StockLevel.IsZero())
}

func TestHandleInsert_IngredienteSinInventarioSeOmite(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	b := batch(false, nil)
	b.Ingredients = append(b.Ingredients,
		entity.BatchIngredient{RawMaterialID: "mat-y", Quantity: testutil.D("2")},      // sin registro
		entity.BatchIngredient{RawMaterialID: "mat-fantasma", Quantity: testutil.D("1")}, // sin materia prima
		entity.BatchIngredient{RawMaterialID: "mat-x", Quantity: testutil.D("1")},
	)

	report := newReactor(s).HandleInsert(context.Background(), b)
	assert.Equal(t, 2, report.Consumed)
	assert.Equal(t, 2, report.Skipped)
	rec, _ := s.Record("Harina", false)
	assert.Equal(t, "14", rec.StockLevel.String(), "los demás ingredientes se procesan igual")
}

func TestHandleInsert_ConsumoNoTocaProductoFinalConMismoNombre(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	s.AddMaterial("mat-pan", "Pan dulce")
	s.AddRecord("Pan dulce", "10", true)
	b := batch(false, nil)
	b.Ingredients = []entity.BatchIngredient{{RawMaterialID: "mat-pan", Quantity: testutil.D("4")}}

	report := newReactor(s).HandleInsert(context.Background(), b)
	assert.Equal(t, 0, report.Consumed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "10", rec.StockLevel.String())
	assert.Empty(t, s.Movements(entity.MovementTypeManufacturingConsume))
}

func TestHandleInsert_TerminadoSinBolsasSeOmite(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)

	report := newReactor(s).HandleInsert(context.Background(), batch(true, intp(0)))
	assert.False(t, report.Produced)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, s.Movements(entity.MovementTypeManufacturingProduce))
	_, ok := s.Record("Pan dulce", true)
	assert.False(t, ok, "sin producción no se crea el registro")
}

func TestHandleInsert_ErrorEnUnPasoNoDetieneLosDemas(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	s.AddRecord("Azúcar", "10", false)
	s.FailOn("materials.GetByID", errors.New("timeout"))
	b := batch(true, intp(2))

	report := newReactor(s).HandleInsert(context.Background(), b)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.Produced, "la producción no depende del consumo")
}

func TestHandleInsert_TerminadoProduceYCreaRegistro(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)

	report := newReactor(s).HandleInsert(context.Background(), batch(true, intp(4)))
	assert.True(t, report.Produced)

	rec, ok := s.Record("Pan dulce", true)
	require.True(t, ok)
	assert.Equal(t, "4", rec.StockLevel.String())
	assert.Equal(t, "bag", rec.Unit)
	assert.Equal(t, "5", rec.ReorderPoint.String())
	assert.True(t, rec.IsRecipeBased)

	movs := s.Movements(entity.MovementTypeManufacturingProduce)
	require.Len(t, movs, 1)
	assert.Equal(t, "4", movs[0].Quantity.String())

	conv, ok := s.Conversion("prod-1")
	require.True(t, ok)
	assert.Equal(t, "12.5", conv.KgPerBag.String())
}

func TestHandleInsert_BolsasPorDefectoUna(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	s.AddRecord("Pan dulce", "10", true)

	newReactor(s).HandleInsert(context.Background(), batch(true, nil))
	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "11", rec.StockLevel.String())
}

func TestHandleUpdate_TerminarProduceUnaVez(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	r := newReactor(s)
	ctx := context.Background()

	created := batch(false, intp(3))
	r.HandleInsert(ctx, created)
	assert.Empty(t, s.Movements(entity.MovementTypeManufacturingProduce))

	finished := batch(true, intp(3))
	report := r.HandleUpdate(ctx, created, finished)
	assert.True(t, report.Produced)
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingProduce), 1)
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingConsume), 1, "el update no vuelve a consumir")

	// El mismo evento repetido no duplica la producción.
	r.HandleUpdate(ctx, created, finished)
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingProduce), 1)
	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "3", rec.StockLevel.String())
}

func TestHandleUpdate_AjusteDeBolsas(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	r := newReactor(s)
	ctx := context.Background()

	old := batch(true, intp(4))
	r.HandleInsert(ctx, old)

	changed := batch(true, intp(6))
	changed.Revision = 1
	report := r.HandleUpdate(ctx, old, changed)
	assert.True(t, report.Adjusted)

	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "6", rec.StockLevel.String())
	adj := s.Movements(entity.MovementTypeManufacturingAdjust)
	require.Len(t, adj, 1)
	assert.Equal(t, "2", adj[0].Quantity.String())

	conv, _ := s.Conversion("prod-1")
	assert.Equal(t, "8.3333333333333333", conv.KgPerBag.String())

	// Vuelta atrás: delta negativo con su propio movimiento.
	back := batch(true, intp(1))
	back.Revision = 2
	r.HandleUpdate(ctx, changed, back)
	rec, _ = s.Record("Pan dulce", true)
	assert.Equal(t, "1", rec.StockLevel.String())
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingAdjust), 2)
}

func TestHandleUpdate_AjustesRepetidosConMismoUpdatedAt(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	r := newReactor(s)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	rev := func(bags int, revision int64) *entity.BatchManufacturingRecord {
		b := batch(true, intp(bags))
		b.Revision = revision
		b.UpdatedAt = at
		return b
	}

	r.HandleInsert(ctx, rev(5, 0))
	r.HandleUpdate(ctx, rev(5, 0), rev(6, 1))
	r.HandleUpdate(ctx, rev(6, 1), rev(5, 2))
	report := r.HandleUpdate(ctx, rev(5, 2), rev(6, 3))
	assert.True(t, report.Adjusted, "el mismo par de valores en otra revisión es un ajuste nuevo")

	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "6", rec.StockLevel.String())
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingAdjust), 3)

	// Repetir la notificación de la revisión 3 no vuelve a ajustar.
	report = r.HandleUpdate(ctx, rev(5, 2), rev(6, 3))
	assert.False(t, report.Adjusted)
	rec, _ = s.Record("Pan dulce", true)
	assert.Equal(t, "6", rec.StockLevel.String())
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingAdjust), 3)
}

func TestHandleUpdate_SinCambioDeBolsasNoHaceNada(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	r := newReactor(s)
	ctx := context.Background()

	old := batch(true, intp(4))
	r.HandleInsert(ctx, old)
	before := len(s.Movements(""))

	report := r.HandleUpdate(ctx, old, batch(true, intp(4)))
	assert.False(t, report.Adjusted)
	assert.Len(t, s.Movements(""), before)
}

func TestHandleUpdate_NoTerminadoNoHaceNada(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)

	report := newReactor(s).HandleUpdate(context.Background(), batch(false, intp(1)), batch(false, intp(9)))
	assert.False(t, report.Produced)
	assert.False(t, report.Adjusted)
	assert.Empty(t, s.Movements(""))
}

func TestHandle_UpdateAntesQueInsertConverge(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	r := newReactor(s)
	ctx := context.Background()

	created, finished := batch(false, intp(2)), batch(true, intp(2))
	_, err := r.Handle(ctx, entity.BatchEvent{Type: entity.ChangeUpdate, Old: created, New: finished})
	require.NoError(t, err)
	_, err = r.Handle(ctx, entity.BatchEvent{Type: entity.ChangeInsert, New: finished})
	require.NoError(t, err)

	assert.Len(t, s.Movements(entity.MovementTypeManufacturingProduce), 1)
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingConsume), 1)
	rec, _ := s.Record("Pan dulce", true)
	assert.Equal(t, "2", rec.StockLevel.String())
}

func TestHandle_EventoInvalido(t *testing.T) {
	r := newReactor(testutil.NewMemStore())
	_, err := r.Handle(context.Background(), entity.BatchEvent{Type: "DELETE"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = r.Handle(context.Background(), entity.BatchEvent{Type: entity.ChangeInsert})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReprocess_CompletaPasosFaltantes(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	s.AddBatch(*batch(true, intp(2)))
	r := newReactor(s)
	ctx := context.Background()

	s.FailOn("records.GetFinalProductByNameForUpdate", errors.New("timeout"))
	first, err := r.Reprocess(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Consumed)
	assert.Equal(t, 1, first.Failed)

	s.ClearFailures()
	second, err := r.Reprocess(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Consumed)
	assert.Equal(t, 1, second.Skipped)
	assert.True(t, second.Produced)

	rec, _ := s.Record("Harina", false)
	assert.Equal(t, "15", rec.StockLevel.String())

	_, err = r.Reprocess(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRun_ProcesaHastaCerrarCanal(t *testing.T) {
	s := testutil.NewMemStore()
	seed(s)
	r := newReactor(s)

	events := make(chan entity.BatchEvent, 2)
	events <- entity.BatchEvent{Type: entity.ChangeInsert, New: batch(false, intp(2))}
	events <- entity.BatchEvent{Type: entity.ChangeUpdate, Old: batch(false, intp(2)), New: batch(true, intp(2))}
	close(events)

	require.NoError(t, r.Run(context.Background(), events, 1))
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingConsume), 1)
	assert.Len(t, s.Movements(entity.MovementTypeManufacturingProduce), 1)
}

func TestRun_TerminaAlCancelarContexto(t *testing.T) {
	r := newReactor(testutil.NewMemStore())
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan entity.BatchEvent)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, events, 4) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}
