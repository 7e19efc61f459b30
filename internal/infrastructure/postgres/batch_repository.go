package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lectura de lotes de producción. Los lotes los escribe otro sistema; aquí solo se leen.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// GetByID obtiene un lote con sus ingredientes. Devuelve (nil, nil) si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.BatchManufacturingRecord, error) {
	query := `
		SELECT id, product_id, batch_size, bags_count, batch_started, batch_finished, ingredients, revision, created_at, updated_at
		FROM batch_manufacturing_records WHERE id = $1`
	var row batchRow
	var ingredients []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.ProductID, &row.BatchSize, &row.BagsCount, &row.BatchStarted, &row.BatchFinished,
		&ingredients, &row.Revision, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	if len(ingredients) > 0 {
		if err := json.Unmarshal(ingredients, &row.Ingredients); err != nil {
			return nil, fmt.Errorf("decode batch ingredients: %w", err)
		}
	}
	return row.toEntity(), nil
}

// batchRow forma de una fila de batch_manufacturing_records, tanto en SQL como en el JSON de row_to_json.
type batchRow struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	BatchSize     decimal.Decimal `json:"batch_size"`
	BagsCount     *int            `json:"bags_count"`
	BatchStarted  *time.Time      `json:"batch_started"`
	BatchFinished *time.Time      `json:"batch_finished"`
	Ingredients   []ingredientRow `json:"ingredients"`
	Revision      int64           `json:"revision"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ingredientRow struct {
	RawMaterialID string          `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

func (b batchRow) toEntity() *entity.BatchManufacturingRecord {
	out := &entity.BatchManufacturingRecord{
		ID:            b.ID,
		ProductID:     b.ProductID,
		BatchSize:     b.BatchSize,
		BagsCount:     b.BagsCount,
		BatchStarted:  b.BatchStarted,
		BatchFinished: b.BatchFinished,
		Revision:      b.Revision,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	for _, ing := range b.Ingredients {
		out.Ingredients = append(out.Ingredients, entity.BatchIngredient{
			RawMaterialID: ing.RawMaterialID,
			Quantity:      ing.Quantity,
		})
	}
	return out
}
