package repository

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// PackageRepository es el puerto de solo lectura hacia el catálogo de
// paquetes (colaborador externo: garantía, precio por nivel, pool compartido).
type PackageRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Package, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Package, error)
}
