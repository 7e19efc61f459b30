// Package manufacturing contiene el reactor que traduce eventos de lotes de producción
// en cambios de stock y movimientos de inventario.
package manufacturing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/application/dto"
	"github.com/jhoicas/Costeo-api/internal/application/inventory"
	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/costing"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// MovementRegistrar registra un movimiento de inventario (implementado por inventory.RegisterMovementUseCase).
type MovementRegistrar interface {
	RegisterMovement(ctx context.Context, in inventory.MovementInput) (*inventory.MovementResult, error)
}

// ReactorConfig valores por defecto del registro de producto final creado por el reactor.
type ReactorConfig struct {
	FinalProductUnit         string
	FinalProductReorderPoint decimal.Decimal
}

// DefaultReactorConfig unidad "bag" y punto de reorden 5.
func DefaultReactorConfig() ReactorConfig {
	return ReactorConfig{
		FinalProductUnit:         entity.DefaultFinalProductUnit,
		FinalProductReorderPoint: decimal.NewFromInt(entity.DefaultFinalProductReorderPoint),
	}
}

// Reactor aplica los efectos de inventario de un lote:
//   - INSERT: consume cada ingrediente; si el lote ya viene terminado, produce.
//   - UPDATE con batch_finished de nulo a definido: produce.
//   - UPDATE con bags_count distinto y lote terminado: ajusta por la diferencia.
//
// Cada paso corre en su propia transacción. Un fallo se registra en el log y no detiene los demás pasos.
// Los movimientos llevan una clave por (lote, paso), así que reprocesar un evento no duplica stock.
type Reactor struct {
	movements    MovementRegistrar
	materialRepo repository.RawMaterialRepository
	productRepo  repository.FinalProductRepository
	convRepo     repository.UnitConversionRepository
	batchRepo    repository.BatchRepository
	cfg          ReactorConfig
	log          zerolog.Logger
}

// NewReactor construye el reactor.
func NewReactor(
	movements MovementRegistrar,
	materialRepo repository.RawMaterialRepository,
	productRepo repository.FinalProductRepository,
	convRepo repository.UnitConversionRepository,
	batchRepo repository.BatchRepository,
	cfg ReactorConfig,
	log zerolog.Logger,
) *Reactor {
	if cfg.FinalProductUnit == "" {
		cfg.FinalProductUnit = entity.DefaultFinalProductUnit
	}
	return &Reactor{
		movements:    movements,
		materialRepo: materialRepo,
		productRepo:  productRepo,
		convRepo:     convRepo,
		batchRepo:    batchRepo,
		cfg:          cfg,
		log:          log,
	}
}

// Handle despacha un evento de cambio según su tipo.
func (r *Reactor) Handle(ctx context.Context, ev entity.BatchEvent) (dto.BatchReport, error) {
	switch ev.Type {
	case entity.ChangeInsert:
		if ev.New == nil {
			return dto.BatchReport{}, domain.ErrInvalidInput
		}
		return r.HandleInsert(ctx, ev.New), nil
	case entity.ChangeUpdate:
		if ev.New == nil {
			return dto.BatchReport{}, domain.ErrInvalidInput
		}
		return r.HandleUpdate(ctx, ev.Old, ev.New), nil
	}
	return dto.BatchReport{}, domain.ErrInvalidInput
}

// HandleInsert consume los ingredientes del lote nuevo y, si ya está terminado, registra la producción.
func (r *Reactor) HandleInsert(ctx context.Context, b *entity.BatchManufacturingRecord) dto.BatchReport {
	report := dto.BatchReport{BatchID: b.ID}
	for i, ing := range b.Ingredients {
		r.consume(ctx, b, i, ing, &report)
	}
	if b.IsFinished() {
		r.produce(ctx, b, &report)
	}
	return report
}

// HandleUpdate registra la producción cuando el lote pasa a terminado, o ajusta el stock
// cuando cambia bags_count en un lote ya terminado. El consumo solo ocurre en el INSERT.
func (r *Reactor) HandleUpdate(ctx context.Context, old, b *entity.BatchManufacturingRecord) dto.BatchReport {
	report := dto.BatchReport{BatchID: b.ID}
	switch {
	case !old.IsFinished() && b.IsFinished():
		r.produce(ctx, b, &report)
	case old.IsFinished() && b.IsFinished():
		r.adjust(ctx, old, b, &report)
	}
	return report
}

// Reprocess vuelve a aplicar el lote almacenado como si fuera un INSERT.
// Los pasos ya aplicados se omiten por su clave, así que solo completa lo que faltó.
func (r *Reactor) Reprocess(ctx context.Context, batchID string) (dto.BatchReport, error) {
	b, err := r.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return dto.BatchReport{}, domain.RetrievalError("get batch", err)
	}
	if b == nil {
		return dto.BatchReport{}, domain.ErrNotFound
	}
	return r.HandleInsert(ctx, b), nil
}

func (r *Reactor) consume(ctx context.Context, b *entity.BatchManufacturingRecord, idx int, ing entity.BatchIngredient, report *dto.BatchReport) {
	log := r.log.With().
		Str("batch_id", b.ID).
		Str("step", entity.MovementTypeManufacturingConsume).
		Str("raw_material_id", ing.RawMaterialID).
		Logger()

	if !ing.Quantity.GreaterThan(decimal.Zero) {
		report.Skipped++
		log.Warn().Str("quantity", ing.Quantity.String()).Msg("ingrediente con cantidad no positiva, se omite")
		return
	}
	material, err := r.materialRepo.GetByID(ctx, ing.RawMaterialID)
	if err != nil {
		report.Failed++
		log.Error().Err(err).Msg("no se pudo leer la materia prima")
		return
	}
	if material == nil {
		report.Skipped++
		log.Warn().Msg("materia prima inexistente, consumo no registrado")
		return
	}

	res, err := r.movements.RegisterMovement(ctx, inventory.MovementInput{
		ProductName:  material.Name,
		Type:         entity.MovementTypeManufacturingConsume,
		Quantity:     ing.Quantity.Neg(),
		ReferenceID:  b.ID,
		ReferenceKey: fmt.Sprintf("batch:%s:consume:%d:%s", b.ID, idx, ing.RawMaterialID),
		Notes:        fmt.Sprintf("consumo lote %s: %s", b.ID, material.Name),
	})
	switch {
	case inventory.IsNotFound(err):
		report.Skipped++
		log.Warn().Str("raw_material", material.Name).Msg("sin registro de inventario para la materia prima, consumo no registrado")
	case err != nil:
		report.Failed++
		log.Error().Err(err).Msg("fallo al registrar consumo")
	case !res.Applied:
		report.Skipped++
		log.Debug().Msg("consumo ya aplicado")
	default:
		report.Consumed++
		log.Debug().Str("stock_level", res.Record.StockLevel.String()).Msg("consumo registrado")
	}
}

func (r *Reactor) produce(ctx context.Context, b *entity.BatchManufacturingRecord, report *dto.BatchReport) {
	log := r.log.With().
		Str("batch_id", b.ID).
		Str("step", entity.MovementTypeManufacturingProduce).
		Str("product_id", b.ProductID).
		Logger()

	product, err := r.productRepo.GetByID(ctx, b.ProductID)
	if err != nil {
		report.Failed++
		log.Error().Err(err).Msg("no se pudo leer el producto final")
		return
	}
	if product == nil {
		report.Failed++
		log.Warn().Msg("producto final inexistente, producción no registrada")
		return
	}

	bags := b.Bags()
	if bags <= 0 {
		report.Skipped++
		log.Warn().Int("bags", bags).Msg("lote terminado sin bolsas, producción no registrada")
		return
	}
	res, err := r.movements.RegisterMovement(ctx, inventory.MovementInput{
		ProductName:  product.Name,
		FinalProduct: true,
		CreateIfMissing: &entity.InventoryRecord{
			Unit:           r.cfg.FinalProductUnit,
			IsFinalProduct: true,
			IsRecipeBased:  product.HasRecipe(),
			ReorderPoint:   r.cfg.FinalProductReorderPoint,
		},
		Type:         entity.MovementTypeManufacturingProduce,
		Quantity:     decimal.NewFromInt(int64(bags)),
		ReferenceID:  b.ID,
		ReferenceKey: fmt.Sprintf("batch:%s:produce", b.ID),
		Notes:        fmt.Sprintf("producción lote %s: %d bolsas", b.ID, bags),
	})
	switch {
	case err != nil:
		report.Failed++
		log.Error().Err(err).Msg("fallo al registrar producción")
		return
	case !res.Applied:
		log.Debug().Msg("producción ya aplicada")
	default:
		report.Produced = true
		log.Info().Int("bags", bags).Bool("record_created", res.Created).Msg("producción registrada")
	}

	r.saveConversion(ctx, b, product.ID, log)
}

func (r *Reactor) adjust(ctx context.Context, old, b *entity.BatchManufacturingRecord, report *dto.BatchReport) {
	delta := b.Bags() - old.Bags()
	if delta == 0 {
		return
	}
	log := r.log.With().
		Str("batch_id", b.ID).
		Str("step", entity.MovementTypeManufacturingAdjust).
		Str("product_id", b.ProductID).
		Int("delta", delta).
		Logger()

	product, err := r.productRepo.GetByID(ctx, b.ProductID)
	if err != nil {
		report.Failed++
		log.Error().Err(err).Msg("no se pudo leer el producto final")
		return
	}
	if product == nil {
		report.Failed++
		log.Warn().Msg("producto final inexistente, ajuste no registrado")
		return
	}

	res, err := r.movements.RegisterMovement(ctx, inventory.MovementInput{
		ProductName:  product.Name,
		FinalProduct: true,
		Type:         entity.MovementTypeManufacturingAdjust,
		Quantity:     decimal.NewFromInt(int64(delta)),
		ReferenceID:  b.ID,
		ReferenceKey: adjustKey(old, b),
		Notes:        fmt.Sprintf("ajuste lote %s: %d → %d bolsas", b.ID, old.Bags(), b.Bags()),
	})
	switch {
	case inventory.IsNotFound(err):
		report.Skipped++
		log.Warn().Str("product", product.Name).Msg("sin registro de inventario del producto final, ajuste no registrado")
	case err != nil:
		report.Failed++
		log.Error().Err(err).Msg("fallo al registrar ajuste")
	case !res.Applied:
		log.Debug().Msg("ajuste ya aplicado")
	default:
		report.Adjusted = true
		log.Info().Str("stock_level", res.Record.StockLevel.String()).Msg("ajuste registrado")
	}

	r.saveConversion(ctx, b, product.ID, log)
}

// saveConversion guarda kg por bolsa del producto. Un fallo solo se registra.
func (r *Reactor) saveConversion(ctx context.Context, b *entity.BatchManufacturingRecord, productID string, log zerolog.Logger) {
	if !b.BatchSize.GreaterThan(decimal.Zero) {
		return
	}
	conv := &entity.UnitConversion{
		ProductID: productID,
		KgPerBag:  costing.KgPerBag(b.BatchSize, b.Bags()),
		UpdatedAt: time.Now(),
	}
	if err := r.convRepo.Upsert(ctx, conv); err != nil {
		log.Error().Err(err).Msg("fallo al guardar conversión kg/bolsa")
	}
}

// adjustKey identifica un cambio de bags_count concreto por la revisión de la fila, que la base
// sube en cada UPDATE. Así 5→6, 6→5, 5→6 son tres ajustes y repetir una notificación no aplica dos veces.
func adjustKey(old, b *entity.BatchManufacturingRecord) string {
	return fmt.Sprintf("batch:%s:adjust:r%d:%d->%d", b.ID, b.Revision, old.Bags(), b.Bags())
}
