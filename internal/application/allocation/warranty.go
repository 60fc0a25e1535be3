package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	domalloc "github.com/jhoicas/Suscripta-api/internal/domain/allocation"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// WarrantyUseCase implementa la máquina de estados de garantía:
// LINKED → NEEDS_UPDATE → (FIXED → LINKED) | (REPLACED → LINKED en otra unidad).
// La credencial liberada se presume comprometida: nunca vuelve directo a
// AVAILABLE, queda NEEDS_UPDATE con previousOrderId hasta FIXED/REPLACED o
// hasta que un operador la limpie explícitamente.
type WarrantyUseCase struct {
	allocator *AllocatorUseCase
	locks     *KeyedMutex
	txRunner  TxRunner
	units     repository.InventoryRepository
	orders    repository.OrderRepository
	packages  repository.PackageRepository
	audit     *audit.Recorder
	now       func() time.Time
}

// NewWarrantyUseCase construye el caso de uso.
func NewWarrantyUseCase(
	allocator *AllocatorUseCase,
	locks *KeyedMutex,
	txRunner TxRunner,
	units repository.InventoryRepository,
	orders repository.OrderRepository,
	packages repository.PackageRepository,
	auditor *audit.Recorder,
) *WarrantyUseCase {
	return &WarrantyUseCase{
		allocator: allocator,
		locks:     locks,
		txRunner:  txRunner,
		units:     units,
		orders:    orders,
		packages:  packages,
		audit:     auditor,
		now:       time.Now,
	}
}

// OpenCase abre un caso de garantía: desvincula el inventario del pedido y
// marca la unidad/perfil NEEDS_UPDATE con el pedido de origen registrado.
func (uc *WarrantyUseCase) OpenCase(ctx context.Context, orderID, actor string) error {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if order.IsRefunded() {
		return domain.ErrTerminalState
	}
	unit, err := uc.allocator.ResolveFor(ctx, order)
	if err != nil {
		return err
	}
	if unit == nil {
		return domain.ErrNotLinked
	}

	unlock := uc.locks.Lock(unit.ID)
	defer unlock()

	var unitCode string
	err = uc.txRunner.Run(ctx, func(units repository.InventoryRepository, orders repository.OrderRepository) error {
		u, err := units.GetByID(ctx, unit.ID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrNotFound
		}
		unitCode = u.Code
		markNeedsUpdate(u, orderID)
		if err := units.UpdateGuarded(ctx, u); err != nil {
			return err
		}
		order.InventoryItemID = ""
		order.InventoryProfileIDs = nil
		order.UpdatedAt = uc.now()
		return orders.Update(ctx, order)
	})
	if err != nil {
		return err
	}
	uc.audit.Record(actor, "WARRANTY_OPEN", "order", orderID,
		fmt.Sprintf("garantía abierta; %s pendiente de rotación", unitCode))
	return nil
}

// ResolveFixed cierra el caso re-vinculando la misma unidad/perfil al pedido
// y limpiando la marca de rotación.
func (uc *WarrantyUseCase) ResolveFixed(ctx context.Context, orderID, actor string) error {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if order.IsRefunded() {
		return domain.ErrTerminalState
	}
	pending, err := uc.units.FindNeedsUpdateByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return domain.ErrNotFound
	}
	unit := pending[0]

	unlock := uc.locks.Lock(unit.ID)
	defer unlock()

	var slotIDs []string
	err = uc.txRunner.Run(ctx, func(units repository.InventoryRepository, orders repository.OrderRepository) error {
		u, err := units.GetByID(ctx, unit.ID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrNotFound
		}
		slotIDs = relinkSame(u, orderID, uc.now())
		if err := units.UpdateGuarded(ctx, u); err != nil {
			return err
		}
		order.InventoryItemID = u.ID
		order.InventoryProfileIDs = slotIDs
		order.UpdatedAt = uc.now()
		return orders.Update(ctx, order)
	})
	if err != nil {
		return err
	}
	uc.audit.Record(actor, "WARRANTY_FIXED", "order", orderID,
		fmt.Sprintf("unidad %s reparada y re-vinculada", unit.Code))
	return nil
}

// ResolveReplaced cierra el caso vinculando una unidad de reemplazo elegible;
// la original queda NEEDS_UPDATE hasta que un operador la limpie.
func (uc *WarrantyUseCase) ResolveReplaced(ctx context.Context, orderID, newUnitID string, slotIDs []string, actor string) error {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if order.IsRefunded() {
		return domain.ErrTerminalState
	}
	// Solo hay reemplazo si existe un caso abierto: una unidad/perfil en
	// NEEDS_UPDATE con este pedido como origen. Sin eso, el pedido sigue
	// respaldado y un reemplazo dejaría la unidad original varada en SOLD.
	pending, err := uc.units.FindNeedsUpdateByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return domain.ErrConflict
	}
	pkg, err := uc.packages.GetByID(ctx, order.PackageID)
	if err != nil {
		return err
	}
	candidate, err := uc.units.GetByID(ctx, newUnitID)
	if err != nil {
		return err
	}
	if candidate == nil {
		return domain.ErrNotFound
	}
	if !domalloc.EligibleReplacement(candidate, pkg) {
		return domain.ErrConflict
	}
	if err := uc.allocator.Assign(ctx, AssignInput{
		OrderID: orderID,
		UnitID:  newUnitID,
		SlotIDs: slotIDs,
		Actor:   actor,
	}); err != nil {
		return err
	}
	uc.audit.Record(actor, "WARRANTY_REPLACED", "order", orderID,
		fmt.Sprintf("reemplazo con unidad %s; la original sigue pendiente de rotación", candidate.Code))
	return nil
}

// ClearNeedsUpdate es la salida manual del estado NEEDS_UPDATE: un operador
// confirma que la credencial fue rotada y la unidad/perfil vuelve a AVAILABLE.
func (uc *WarrantyUseCase) ClearNeedsUpdate(ctx context.Context, unitID, slotID, actor string) error {
	unlock := uc.locks.Lock(unitID)
	defer unlock()

	unit, err := uc.units.GetByID(ctx, unitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return domain.ErrNotFound
	}
	if unit.IsAccountBased {
		s := unit.SlotByID(slotID)
		if s == nil {
			return domain.ErrNotFound
		}
		if !s.NeedsUpdate {
			return domain.ErrConflict
		}
		s.NeedsUpdate = false
		s.PreviousOrderID = ""
		unit.RecomputeStatus()
	} else {
		if unit.Status != entity.UnitStatusNeedsUpdate {
			return domain.ErrConflict
		}
		unit.Status = entity.UnitStatusAvailable
		unit.PreviousLinkedOrderID = ""
	}
	if err := uc.units.UpdateGuarded(ctx, unit); err != nil {
		return err
	}
	uc.audit.Record(actor, "WARRANTY_CLEARED", "inventory", unitID, "rotación confirmada; unidad disponible")
	return nil
}

// markNeedsUpdate libera el vínculo del pedido dejando la credencial en
// cuarentena (no disponible) con el pedido de origen registrado.
func markNeedsUpdate(u *entity.InventoryUnit, orderID string) {
	if !u.IsAccountBased {
		u.LinkedOrderID = ""
		u.PreviousLinkedOrderID = orderID
		u.Status = entity.UnitStatusNeedsUpdate
		return
	}
	for i := range u.Profiles {
		s := &u.Profiles[i]
		if s.IsAssigned && s.AssignedOrderID == orderID {
			s.IsAssigned = false
			s.AssignedOrderID = ""
			s.AssignedAt = nil
			s.ExpiryAt = nil
			s.NeedsUpdate = true
			s.PreviousOrderID = orderID
		}
	}
	u.RecomputeStatus()
}

// relinkSame revierte markNeedsUpdate: misma unidad, mismo perfil, mismo pedido.
func relinkSame(u *entity.InventoryUnit, orderID string, now time.Time) []string {
	if !u.IsAccountBased {
		u.LinkedOrderID = orderID
		u.PreviousLinkedOrderID = ""
		u.Status = entity.UnitStatusSold
		return nil
	}
	var slotIDs []string
	for i := range u.Profiles {
		s := &u.Profiles[i]
		if s.NeedsUpdate && s.PreviousOrderID == orderID {
			s.NeedsUpdate = false
			s.PreviousOrderID = ""
			s.IsAssigned = true
			s.AssignedOrderID = orderID
			s.AssignedAt = &now
			exp := u.ExpiryDate
			s.ExpiryAt = &exp
			slotIDs = append(slotIDs, s.ID)
		}
	}
	u.RecomputeStatus()
	return slotIDs
}
