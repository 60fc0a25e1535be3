package repository

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// CustomerRepository es el puerto de solo lectura hacia los clientes
// (colaborador externo: nivel de precio).
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
