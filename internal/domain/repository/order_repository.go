package repository

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order.
// La cadena de renovaciones viaja embebida en el pedido (columna JSONB).
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Order, error)
	ListAll(ctx context.Context) ([]*entity.Order, error)
	// ExistingIDs filtra el conjunto dado a los ids de pedido que existen
	// (lo usa el escaneo de asignaciones huérfanas).
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Update(ctx context.Context, o *entity.Order) error
	NextCode(ctx context.Context) (string, error)
}
