package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

var _ repository.StockReceiptRepository = (*StockReceiptRepo)(nil)

// StockReceiptRepo implementación sobre PostgreSQL (usable con pool o tx).
type StockReceiptRepo struct {
	q Querier
}

// NewStockReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockReceiptRepository(q Querier) *StockReceiptRepo {
	return &StockReceiptRepo{q: q}
}

const receiptColumns = `id, raw_material_id, quantity, unit_price, is_accepted, received_at, created_at, created_by`

// Create persiste una recepción.
func (r *StockReceiptRepo) Create(ctx context.Context, receipt *entity.StockReceipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	createdBy := (*string)(nil)
	if receipt.CreatedBy != "" {
		createdBy = &receipt.CreatedBy
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		receipt.ID, receipt.RawMaterialID, receipt.Quantity, receipt.UnitPrice, receipt.IsAccepted,
		receipt.ReceivedAt, receipt.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create stock receipt: %w", err)
	}
	return nil
}

// GetByID obtiene una recepción por ID. Devuelve (nil, nil) si no existe.
func (r *StockReceiptRepo) GetByID(ctx context.Context, id string) (*entity.StockReceipt, error) {
	row := r.q.QueryRow(ctx, `SELECT `+receiptColumns+` FROM stock_receipts WHERE id = $1`, id)
	rc, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock receipt: %w", err)
	}
	return rc, nil
}

// ListAcceptedByMaterial lista las recepciones aceptadas de una materia prima.
func (r *StockReceiptRepo) ListAcceptedByMaterial(ctx context.Context, rawMaterialID string) ([]*entity.StockReceipt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+receiptColumns+` FROM stock_receipts
		WHERE raw_material_id = $1 AND is_accepted
		ORDER BY received_at`, rawMaterialID)
	if err != nil {
		return nil, fmt.Errorf("list accepted receipts: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockReceipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, rc)
	}
	return list, rows.Err()
}

// MarkAccepted pasa una recepción de pendiente a aceptada. Es la única mutación permitida.
func (r *StockReceiptRepo) MarkAccepted(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE stock_receipts SET is_accepted = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark receipt accepted: %w", err)
	}
	return nil
}

func scanReceipt(row pgx.Row) (*entity.StockReceipt, error) {
	var rc entity.StockReceipt
	var createdBy *string
	if err := row.Scan(&rc.ID, &rc.RawMaterialID, &rc.Quantity, &rc.UnitPrice, &rc.IsAccepted,
		&rc.ReceivedAt, &rc.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	if createdBy != nil {
		rc.CreatedBy = *createdBy
	}
	return &rc, nil
}
