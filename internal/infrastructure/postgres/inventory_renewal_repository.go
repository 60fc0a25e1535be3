package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

var _ repository.InventoryRenewalRepository = (*InventoryRenewalRepo)(nil)

// InventoryRenewalRepo persiste las renovaciones a nivel de stock en su
// propia tabla (a diferencia de las de pedido, que viajan embebidas).
type InventoryRenewalRepo struct {
	q Querier
}

// NewInventoryRenewalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRenewalRepository(q Querier) *InventoryRenewalRepo {
	return &InventoryRenewalRepo{q: q}
}

const renewalColumns = `
	id, inventory_id, months, amount, previous_expiry_date, new_expiry_date,
	note, payment_status, created_at, created_by`

// Create inserta un registro de renovación de stock.
func (r *InventoryRenewalRepo) Create(ctx context.Context, rec *entity.InventoryRenewal) error {
	query := `
		INSERT INTO inventory_renewals (` + renewalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.InventoryID, rec.Months, rec.Amount, rec.PreviousExpiryDate, rec.NewExpiryDate,
		rec.Note, rec.PaymentStatus, rec.CreatedAt, rec.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert inventory renewal: %w", err)
	}
	return nil
}

// GetByID obtiene un registro por ID. Devuelve (nil, nil) si no existe.
func (r *InventoryRenewalRepo) GetByID(ctx context.Context, id string) (*entity.InventoryRenewal, error) {
	query := `SELECT ` + renewalColumns + ` FROM inventory_renewals WHERE id = $1`
	var rec entity.InventoryRenewal
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.InventoryID, &rec.Months, &rec.Amount, &rec.PreviousExpiryDate, &rec.NewExpiryDate,
		&rec.Note, &rec.PaymentStatus, &rec.CreatedAt, &rec.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory renewal: %w", err)
	}
	return &rec, nil
}

// ListByInventory devuelve el historial de renovaciones de una unidad, en
// orden de creación.
func (r *InventoryRenewalRepo) ListByInventory(ctx context.Context, inventoryID string) ([]*entity.InventoryRenewal, error) {
	query := `SELECT ` + renewalColumns + ` FROM inventory_renewals WHERE inventory_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("list inventory renewals: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryRenewal
	for rows.Next() {
		var rec entity.InventoryRenewal
		if err := rows.Scan(
			&rec.ID, &rec.InventoryID, &rec.Months, &rec.Amount, &rec.PreviousExpiryDate, &rec.NewExpiryDate,
			&rec.Note, &rec.PaymentStatus, &rec.CreatedAt, &rec.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan inventory renewal: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory renewals: %w", err)
	}
	return out, nil
}

// UpdatePaymentStatus edita el estado de pago del registro (única mutación
// permitida sobre un registro ya creado).
func (r *InventoryRenewalRepo) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE inventory_renewals SET payment_status = $2 WHERE id = $1`, id, paymentStatus)
	if err != nil {
		return fmt.Errorf("update renewal payment status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
