package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

var _ repository.PackageRepository = (*PackageRepo)(nil)

// PackageRepo lectura del catálogo de paquetes. Los precios por nivel viajan
// en una columna JSONB.
type PackageRepo struct {
	q Querier
}

// NewPackageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageRepository(q Querier) *PackageRepo {
	return &PackageRepo{q: q}
}

const packageColumns = `
	id, product_id, name, warranty_months, shared_pool, prices, created_at, updated_at`

// GetByID obtiene un paquete por ID. Devuelve (nil, nil) si no existe.
func (r *PackageRepo) GetByID(ctx context.Context, id string) (*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`
	var p entity.Package
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ProductID, &p.Name, &p.WarrantyMonths, &p.SharedPool, &p.Prices, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &p, nil
}

// ListByProduct devuelve los paquetes de un producto.
func (r *PackageRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE product_id = $1 ORDER BY name`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()
	var out []*entity.Package
	for rows.Next() {
		var p entity.Package
		if err := rows.Scan(
			&p.ID, &p.ProductID, &p.Name, &p.WarrantyMonths, &p.SharedPool, &p.Prices, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return out, nil
}
