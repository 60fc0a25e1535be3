// Package allocation contiene la lógica pura de vinculación entre pedidos y
// unidades de inventario: la cadena de resolución histórica y las reglas de
// elegibilidad para reemplazos.
package allocation

import "github.com/jhoicas/Suscripta-api/internal/domain/entity"

// Resolver intenta localizar la unidad que respalda un pedido dentro de un
// conjunto candidato. Devuelve nil si esta estrategia no encuentra nada.
type Resolver interface {
	Resolve(order *entity.Order, units []*entity.InventoryUnit) *entity.InventoryUnit
}

// NewChain construye la cadena de resolución en su orden canónico. El orden
// refleja varias generaciones del formato de datos y es parte del contrato:
// gana la primera estrategia que sustente el vínculo.
//
//  1. Referencia directa del pedido (inventoryItemId), validada contra la
//     unidad: un id que no se sostiene se trata como obsoleto, no como error.
//  2. Búsqueda de unidad clásica con linkedOrderId == pedido.
//  3. Búsqueda por los perfiles declarados en inventoryProfileIds.
//  4. Búsqueda de cualquier perfil asignado al pedido.
func NewChain() []Resolver {
	return []Resolver{
		directReference{},
		classicLink{},
		declaredProfiles{},
		anyAssignedSlot{},
	}
}

// ResolveInventoryFor evalúa la cadena completa sobre los candidatos.
// Devuelve nil cuando el pedido no está vinculado (no es un error).
func ResolveInventoryFor(order *entity.Order, units []*entity.InventoryUnit) *entity.InventoryUnit {
	for _, r := range NewChain() {
		if u := r.Resolve(order, units); u != nil {
			return u
		}
	}
	return nil
}

// Substantiates verifica que la unidad realmente respalde al pedido según su
// tipo: vínculo clásico exacto, o algún perfil asignado al pedido (directo o
// declarado en inventoryProfileIds).
func Substantiates(u *entity.InventoryUnit, order *entity.Order) bool {
	if u == nil {
		return false
	}
	if !u.IsAccountBased {
		return u.LinkedOrderID == order.ID
	}
	if u.SlotAssignedTo(order.ID) != nil {
		return true
	}
	for _, sid := range order.InventoryProfileIDs {
		if s := u.SlotByID(sid); s != nil && s.IsAssigned && s.AssignedOrderID == order.ID {
			return true
		}
	}
	return false
}

// directReference: paso 1 — el id que el pedido guarda, validado.
type directReference struct{}

func (directReference) Resolve(order *entity.Order, units []*entity.InventoryUnit) *entity.InventoryUnit {
	if order.InventoryItemID == "" {
		return nil
	}
	for _, u := range units {
		if u.ID != order.InventoryItemID {
			continue
		}
		if Substantiates(u, order) {
			return u
		}
		// Referencia obsoleta: se ignora y la cadena continúa.
		return nil
	}
	return nil
}

// classicLink: paso 2 — unidad clásica vinculada a este pedido.
type classicLink struct{}

func (classicLink) Resolve(order *entity.Order, units []*entity.InventoryUnit) *entity.InventoryUnit {
	for _, u := range units {
		if !u.IsAccountBased && u.LinkedOrderID == order.ID {
			return u
		}
	}
	return nil
}

// declaredProfiles: paso 3 — unidades account-based que contengan alguno de
// los perfiles declarados por el pedido, asignado a este pedido.
type declaredProfiles struct{}

func (declaredProfiles) Resolve(order *entity.Order, units []*entity.InventoryUnit) *entity.InventoryUnit {
	if len(order.InventoryProfileIDs) == 0 {
		return nil
	}
	for _, u := range units {
		if !u.IsAccountBased {
			continue
		}
		for _, sid := range order.InventoryProfileIDs {
			if s := u.SlotByID(sid); s != nil && s.IsAssigned && s.AssignedOrderID == order.ID {
				return u
			}
		}
	}
	return nil
}

// anyAssignedSlot: paso 4 — último recurso, cualquier perfil asignado al pedido.
type anyAssignedSlot struct{}

func (anyAssignedSlot) Resolve(order *entity.Order, units []*entity.InventoryUnit) *entity.InventoryUnit {
	for _, u := range units {
		if u.IsAccountBased && u.SlotAssignedTo(order.ID) != nil {
			return u
		}
	}
	return nil
}
