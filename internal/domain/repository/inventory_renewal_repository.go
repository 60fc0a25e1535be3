package repository

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// InventoryRenewalRepository persiste las renovaciones a nivel de stock.
// El log es solo-agregar; la única edición permitida es el estado de pago.
type InventoryRenewalRepository interface {
	Create(ctx context.Context, r *entity.InventoryRenewal) error
	GetByID(ctx context.Context, id string) (*entity.InventoryRenewal, error)
	ListByInventory(ctx context.Context, inventoryID string) ([]*entity.InventoryRenewal, error)
	UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error
}
