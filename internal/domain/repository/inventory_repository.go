package repository

import (
	"context"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// InventoryRepository define el puerto de persistencia para InventoryUnit.
type InventoryRepository interface {
	Create(ctx context.Context, u *entity.InventoryUnit) error
	GetByID(ctx context.Context, id string) (*entity.InventoryUnit, error)
	List(ctx context.Context, limit, offset int) ([]*entity.InventoryUnit, error)
	ListAll(ctx context.Context) ([]*entity.InventoryUnit, error)

	// FindByLinkedOrder busca unidades clásicas con linkedOrderId == orderID.
	FindByLinkedOrder(ctx context.Context, orderID string) ([]*entity.InventoryUnit, error)
	// FindBySlotOrder busca unidades account-based con algún perfil asignado al pedido.
	FindBySlotOrder(ctx context.Context, orderID string) ([]*entity.InventoryUnit, error)
	// FindNeedsUpdateByOrder busca la unidad/perfil marcado NEEDS_UPDATE cuyo
	// previousOrderId apunta al pedido (flujo de garantía).
	FindNeedsUpdateByOrder(ctx context.Context, orderID string) ([]*entity.InventoryUnit, error)
	// FindEligible lista candidatos para reemplazo: por paquete exacto o, en
	// pool compartido, por producto.
	FindEligible(ctx context.Context, productID, packageID string, sharedPool bool) ([]*entity.InventoryUnit, error)

	// Update escribe la unidad sin guarda (barridos y ediciones de catálogo).
	Update(ctx context.Context, u *entity.InventoryUnit) error
	// UpdateGuarded escribe condicionado a que Version no haya cambiado e
	// incrementa la versión. Devuelve domain.ErrConflict si otra escritura ganó.
	UpdateGuarded(ctx context.Context, u *entity.InventoryUnit) error

	NextCode(ctx context.Context) (string, error)
}
