package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL
// (usable con pool o tx). Los perfiles, el esquema de credenciales y los
// datos de la cuenta viajan en columnas JSONB.
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

const inventoryColumns = `
	id, code, product_id, package_id, purchase_date, expiry_date, status,
	is_account_based, total_slots, profiles, account_columns, account_data,
	linked_order_id, previous_linked_order_id, payment_status,
	pool_warranty_months, version, created_at, updated_at`

// Create persiste una unidad nueva.
func (r *InventoryRepo) Create(ctx context.Context, u *entity.InventoryUnit) error {
	query := `
		INSERT INTO inventory_units (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.Code, u.ProductID, u.PackageID, u.PurchaseDate, u.ExpiryDate, u.Status,
		u.IsAccountBased, u.TotalSlots, u.Profiles, u.AccountColumns, u.AccountData,
		u.LinkedOrderID, u.PreviousLinkedOrderID, u.PaymentStatus,
		u.PoolWarrantyMonths, u.Version, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert inventory unit: %w", err)
	}
	return nil
}

// GetByID obtiene una unidad por ID. Devuelve (nil, nil) si no existe.
func (r *InventoryRepo) GetByID(ctx context.Context, id string) (*entity.InventoryUnit, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_units WHERE id = $1`
	u, err := scanUnit(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory unit: %w", err)
	}
	return u, nil
}

// List devuelve una página del catálogo ordenada por consecutivo.
func (r *InventoryRepo) List(ctx context.Context, limit, offset int) ([]*entity.InventoryUnit, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_units ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory units: %w", err)
	}
	return collectUnits(rows)
}

// ListAll devuelve el inventario completo (barridos y escaneos de reparación).
func (r *InventoryRepo) ListAll(ctx context.Context) ([]*entity.InventoryUnit, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_units ORDER BY code`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all inventory units: %w", err)
	}
	return collectUnits(rows)
}

// FindByLinkedOrder busca unidades clásicas vinculadas al pedido.
func (r *InventoryRepo) FindByLinkedOrder(ctx context.Context, orderID string) ([]*entity.InventoryUnit, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_units
		WHERE NOT is_account_based AND linked_order_id = $1`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("find by linked order: %w", err)
	}
	return collectUnits(rows)
}

// FindBySlotOrder busca unidades account-based con un perfil asignado al
// pedido, por contención JSONB sobre profiles.
func (r *InventoryRepo) FindBySlotOrder(ctx context.Context, orderID string) ([]*entity.InventoryUnit, error) {
	needle, err := json.Marshal([]map[string]any{{"isAssigned": true, "assignedOrderId": orderID}})
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_units
		WHERE is_account_based AND profiles @> $1::jsonb`
	rows, err := r.q.Query(ctx, query, string(needle))
	if err != nil {
		return nil, fmt.Errorf("find by slot order: %w", err)
	}
	return collectUnits(rows)
}

// FindNeedsUpdateByOrder busca la unidad o el perfil en cuarentena cuyo
// pedido de origen es orderID.
func (r *InventoryRepo) FindNeedsUpdateByOrder(ctx context.Context, orderID string) ([]*entity.InventoryUnit, error) {
	needle, err := json.Marshal([]map[string]any{{"needsUpdate": true, "previousOrderId": orderID}})
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_units
		WHERE (NOT is_account_based AND status = $1 AND previous_linked_order_id = $2)
		   OR (is_account_based AND profiles @> $3::jsonb)`
	rows, err := r.q.Query(ctx, query, entity.UnitStatusNeedsUpdate, orderID, string(needle))
	if err != nil {
		return nil, fmt.Errorf("find needs-update by order: %w", err)
	}
	return collectUnits(rows)
}

// FindEligible lista candidatos de reemplazo: por producto cuando el paquete
// usa pool compartido, por paquete exacto en caso contrario.
func (r *InventoryRepo) FindEligible(ctx context.Context, productID, packageID string, sharedPool bool) ([]*entity.InventoryUnit, error) {
	var rows pgx.Rows
	var err error
	if sharedPool {
		query := `SELECT ` + inventoryColumns + ` FROM inventory_units WHERE product_id = $1 ORDER BY code`
		rows, err = r.q.Query(ctx, query, productID)
	} else {
		query := `SELECT ` + inventoryColumns + ` FROM inventory_units WHERE package_id = $1 ORDER BY code`
		rows, err = r.q.Query(ctx, query, packageID)
	}
	if err != nil {
		return nil, fmt.Errorf("find eligible units: %w", err)
	}
	return collectUnits(rows)
}

// Update escribe la unidad sin guarda (barridos, ediciones de catálogo).
func (r *InventoryRepo) Update(ctx context.Context, u *entity.InventoryUnit) error {
	query := `
		UPDATE inventory_units SET
			product_id = $2, package_id = $3, purchase_date = $4, expiry_date = $5,
			status = $6, total_slots = $7, profiles = $8, account_columns = $9,
			account_data = $10, linked_order_id = $11, previous_linked_order_id = $12,
			payment_status = $13, pool_warranty_months = $14, updated_at = $15
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		u.ID, u.ProductID, u.PackageID, u.PurchaseDate, u.ExpiryDate,
		u.Status, u.TotalSlots, u.Profiles, u.AccountColumns,
		u.AccountData, u.LinkedOrderID, u.PreviousLinkedOrderID,
		u.PaymentStatus, u.PoolWarrantyMonths, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory unit: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateGuarded escribe condicionado a la versión leída: cero filas afectadas
// significa que otra escritura ganó la carrera.
func (r *InventoryRepo) UpdateGuarded(ctx context.Context, u *entity.InventoryUnit) error {
	query := `
		UPDATE inventory_units SET
			product_id = $2, package_id = $3, purchase_date = $4, expiry_date = $5,
			status = $6, total_slots = $7, profiles = $8, account_columns = $9,
			account_data = $10, linked_order_id = $11, previous_linked_order_id = $12,
			payment_status = $13, pool_warranty_months = $14, updated_at = $15,
			version = version + 1
		WHERE id = $1 AND version = $16`
	cmd, err := r.q.Exec(ctx, query,
		u.ID, u.ProductID, u.PackageID, u.PurchaseDate, u.ExpiryDate,
		u.Status, u.TotalSlots, u.Profiles, u.AccountColumns,
		u.AccountData, u.LinkedOrderID, u.PreviousLinkedOrderID,
		u.PaymentStatus, u.PoolWarrantyMonths, u.UpdatedAt,
		u.Version,
	)
	if err != nil {
		return fmt.Errorf("guarded update inventory unit: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	u.Version++
	return nil
}

// NextCode devuelve el siguiente consecutivo legible de inventario.
func (r *InventoryRepo) NextCode(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('inventory_code_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next inventory code: %w", err)
	}
	return fmt.Sprintf("INV-%06d", n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*entity.InventoryUnit, error) {
	var u entity.InventoryUnit
	err := row.Scan(
		&u.ID, &u.Code, &u.ProductID, &u.PackageID, &u.PurchaseDate, &u.ExpiryDate, &u.Status,
		&u.IsAccountBased, &u.TotalSlots, &u.Profiles, &u.AccountColumns, &u.AccountData,
		&u.LinkedOrderID, &u.PreviousLinkedOrderID, &u.PaymentStatus,
		&u.PoolWarrantyMonths, &u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUnits(rows pgx.Rows) ([]*entity.InventoryUnit, error) {
	defer rows.Close()
	var out []*entity.InventoryUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory unit: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory units: %w", err)
	}
	return out, nil
}
