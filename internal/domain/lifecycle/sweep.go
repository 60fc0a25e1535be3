// Package lifecycle deriva el estado temporal de unidades y pedidos por pura
// comparación contra el reloj. Las funciones son idempotentes: aplicar el
// barrido dos veces sin que pase el tiempo no produce ningún cambio.
package lifecycle

import (
	"time"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// NextUnitStatus devuelve la transición de estado que corresponde a la unidad
// en el instante now, y si hay alguna. Hacia adelante: una unidad no vendida
// cuya vigencia ya pasó se marca EXPIRED. Hacia atrás: una unidad EXPIRED
// cuya vigencia volvió al futuro (una renovación de stock la extendió) y que
// no respalda ningún pedido vuelve a AVAILABLE.
func NextUnitStatus(u *entity.InventoryUnit, now time.Time) (string, bool) {
	if now.After(u.ExpiryDate) {
		if u.Status != entity.UnitStatusSold && u.Status != entity.UnitStatusExpired {
			return entity.UnitStatusExpired, true
		}
		return "", false
	}
	if u.Status == entity.UnitStatusExpired && !u.HasActiveAssignment() {
		return entity.UnitStatusAvailable, true
	}
	return "", false
}

// NextOrderStatus devuelve la transición de estado del pedido en now.
// REFUNDED siempre fuerza CANCELLED (idempotente y absorbente). Después:
// COMPLETED vencido pasa a EXPIRED; EXPIRED con vigencia futura (una
// renovación la recorrió) vuelve a COMPLETED.
func NextOrderStatus(o *entity.Order, now time.Time) (string, bool) {
	if o.IsRefunded() {
		if o.Status != entity.OrderStatusCancelled {
			return entity.OrderStatusCancelled, true
		}
		return "", false
	}
	if now.After(o.ExpiryDate) {
		if o.Status == entity.OrderStatusCompleted {
			return entity.OrderStatusExpired, true
		}
		return "", false
	}
	if o.Status == entity.OrderStatusExpired {
		return entity.OrderStatusCompleted, true
	}
	return "", false
}
