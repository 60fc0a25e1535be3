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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con
// pool o tx). La cadena de renovaciones y los ids de perfil reclamados viajan
// en columnas JSONB: el registro histórico se lee y escribe como un todo.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `
	id, code, customer_id, package_id, status, payment_status,
	purchase_date, expiry_date, inventory_item_id, inventory_profile_ids,
	sale_price, use_custom_price, custom_price, refund_amount, refund_at,
	renewals, renewal_message_sent, renewal_message_sent_at,
	renewal_message_sent_by, created_at, updated_at`

// Create persiste un pedido nuevo.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Code, o.CustomerID, o.PackageID, o.Status, o.PaymentStatus,
		o.PurchaseDate, o.ExpiryDate, o.InventoryItemID, o.InventoryProfileIDs,
		o.SalePrice, o.UseCustomPrice, o.CustomPrice, o.RefundAmount, o.RefundAt,
		o.Renewals, o.RenewalMessageSent, o.RenewalMessageSentAt,
		o.RenewalMessageSentBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID obtiene un pedido por ID. Devuelve (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List devuelve una página de pedidos, los más recientes primero.
func (r *OrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, code DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collectOrders(rows)
}

// ListAll devuelve todos los pedidos (barridos y escaneos de reparación).
func (r *OrderRepo) ListAll(ctx context.Context) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY code`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return collectOrders(rows)
}

// ExistingIDs filtra el conjunto dado a los ids de pedido que existen.
func (r *OrderRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT id FROM orders WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("existing order ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order ids: %w", err)
	}
	return out, nil
}

// Update escribe el pedido completo, cadena de renovaciones incluida.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders SET
			customer_id = $2, package_id = $3, status = $4, payment_status = $5,
			purchase_date = $6, expiry_date = $7, inventory_item_id = $8,
			inventory_profile_ids = $9, sale_price = $10, use_custom_price = $11,
			custom_price = $12, refund_amount = $13, refund_at = $14, renewals = $15,
			renewal_message_sent = $16, renewal_message_sent_at = $17,
			renewal_message_sent_by = $18, updated_at = $19
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		o.ID, o.CustomerID, o.PackageID, o.Status, o.PaymentStatus,
		o.PurchaseDate, o.ExpiryDate, o.InventoryItemID,
		o.InventoryProfileIDs, o.SalePrice, o.UseCustomPrice,
		o.CustomPrice, o.RefundAmount, o.RefundAt, o.Renewals,
		o.RenewalMessageSent, o.RenewalMessageSentAt,
		o.RenewalMessageSentBy, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextCode devuelve el siguiente consecutivo legible de pedidos.
func (r *OrderRepo) NextCode(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('order_code_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order code: %w", err)
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(
		&o.ID, &o.Code, &o.CustomerID, &o.PackageID, &o.Status, &o.PaymentStatus,
		&o.PurchaseDate, &o.ExpiryDate, &o.InventoryItemID, &o.InventoryProfileIDs,
		&o.SalePrice, &o.UseCustomPrice, &o.CustomPrice, &o.RefundAmount, &o.RefundAt,
		&o.Renewals, &o.RenewalMessageSent, &o.RenewalMessageSentAt,
		&o.RenewalMessageSentBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*entity.Order, error) {
	defer rows.Close()
	var out []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}
