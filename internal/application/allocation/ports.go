package allocation

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// TxRunner ejecuta un callback con repositorios atados a una transacción:
// Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		units repository.InventoryRepository,
		orders repository.OrderRepository,
	) error) error
}
