package allocation

import "github.com/jhoicas/Suscripta-api/internal/domain/entity"

// EligibleReplacement decide si una unidad califica como reemplazo para un
// pedido del paquete dado (flujo de garantía). Regla de frontera del pool:
// si el producto está configurado como pool compartido, cualquier unidad del
// producto sirve; si no, solo unidades del paquete exacto.
func EligibleReplacement(u *entity.InventoryUnit, pkg *entity.Package) bool {
	if u == nil || pkg == nil {
		return false
	}
	if pkg.SharedPool {
		if u.ProductID != pkg.ProductID {
			return false
		}
	} else if u.PackageID != pkg.ID {
		return false
	}
	if u.IsAccountBased {
		return u.FreeSlots() > 0
	}
	return u.Status == entity.UnitStatusAvailable
}

// PickEligible devuelve la primera unidad elegible del conjunto, o nil.
func PickEligible(units []*entity.InventoryUnit, pkg *entity.Package) *entity.InventoryUnit {
	for _, u := range units {
		if EligibleReplacement(u, pkg) {
			return u
		}
	}
	return nil
}
