// Package allocation (capa de aplicación) ejecuta la vinculación y
// liberación de inventario con las dos guardas contra la doble venta:
// un cerrojo por unidad dentro del proceso y la escritura condicionada por
// versión en la base (RowsAffected == 0 ⇒ carrera perdida ⇒ ErrConflict).
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

// AllocatorUseCase asigna y libera unidades/perfiles a pedidos.
type AllocatorUseCase struct {
	locks    *KeyedMutex
	txRunner TxRunner
	units    repository.InventoryRepository
	orders   repository.OrderRepository
	audit    *audit.Recorder
	now      func() time.Time
}

// NewAllocatorUseCase construye el caso de uso.
func NewAllocatorUseCase(
	locks *KeyedMutex,
	txRunner TxRunner,
	units repository.InventoryRepository,
	orders repository.OrderRepository,
	auditor *audit.Recorder,
) *AllocatorUseCase {
	return &AllocatorUseCase{
		locks:    locks,
		txRunner: txRunner,
		units:    units,
		orders:   orders,
		audit:    auditor,
		now:      time.Now,
	}
}

// ResolveFor localiza la unidad que respalda al pedido evaluando la cadena
// de resolución sobre los candidatos relevantes. nil sin error = no vinculado.
func (uc *AllocatorUseCase) ResolveFor(ctx context.Context, order *entity.Order) (*entity.InventoryUnit, error) {
	candidates, err := uc.candidates(ctx, order)
	if err != nil {
		return nil, err
	}
	return domalloc.ResolveInventoryFor(order, candidates), nil
}

// candidates reúne el conjunto sobre el que corre la cadena: la unidad
// referenciada directamente más los resultados de las búsquedas por vínculo
// clásico y por perfil. El orden de la cadena decide entre ellos.
func (uc *AllocatorUseCase) candidates(ctx context.Context, order *entity.Order) ([]*entity.InventoryUnit, error) {
	var out []*entity.InventoryUnit
	if order.InventoryItemID != "" {
		u, err := uc.units.GetByID(ctx, order.InventoryItemID)
		if err != nil {
			return nil, fmt.Errorf("unidad referenciada: %w", err)
		}
		if u != nil {
			out = append(out, u)
		}
	}
	classic, err := uc.units.FindByLinkedOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("búsqueda por vínculo clásico: %w", err)
	}
	out = append(out, classic...)

	slotted, err := uc.units.FindBySlotOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("búsqueda por perfil: %w", err)
	}
	out = append(out, slotted...)
	return out, nil
}

// AssignInput parámetros de una asignación.
type AssignInput struct {
	OrderID string
	UnitID  string
	SlotIDs []string // vacío = elegir el primer perfil libre (account-based)
	Actor   string
}

// Assign vincula la unidad (o perfiles de ella) al pedido. Reasignar el mismo
// pedido es idempotente; cualquier otro conflicto se rechaza sin mutar.
func (uc *AllocatorUseCase) Assign(ctx context.Context, in AssignInput) error {
	unlock := uc.locks.Lock(in.UnitID)
	defer unlock()

	var unitCode string
	err := uc.txRunner.Run(ctx, func(units repository.InventoryRepository, orders repository.OrderRepository) error {
		order, err := orders.GetByID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.IsRefunded() {
			return domain.ErrTerminalState
		}
		unit, err := units.GetByID(ctx, in.UnitID)
		if err != nil {
			return err
		}
		if unit == nil {
			return domain.ErrNotFound
		}
		unitCode = unit.Code

		now := uc.now()
		if unit.IsAccountBased {
			slotIDs, err := uc.assignSlots(unit, order, in.SlotIDs, now)
			if err != nil {
				return err
			}
			order.InventoryItemID = unit.ID
			order.InventoryProfileIDs = slotIDs
		} else {
			if err := assignClassic(unit, order); err != nil {
				return err
			}
			order.InventoryItemID = unit.ID
			order.InventoryProfileIDs = nil
		}

		if err := units.UpdateGuarded(ctx, unit); err != nil {
			return err
		}
		order.UpdatedAt = now
		return orders.Update(ctx, order)
	})
	if err != nil {
		return err
	}
	uc.audit.Record(in.Actor, "ASSIGN", "order", in.OrderID,
		fmt.Sprintf("inventario %s vinculado al pedido", unitCode))
	return nil
}

// assignClassic vincula una unidad clásica: a lo sumo un pedido a la vez.
func assignClassic(unit *entity.InventoryUnit, order *entity.Order) error {
	if unit.LinkedOrderID == order.ID {
		return nil // reasignación idempotente
	}
	if unit.LinkedOrderID != "" {
		return domain.ErrAlreadyAssigned
	}
	switch unit.Status {
	case entity.UnitStatusAvailable, entity.UnitStatusReserved:
	case entity.UnitStatusNeedsUpdate:
		return domain.ErrNeedsUpdate
	default:
		return domain.ErrConflict
	}
	unit.LinkedOrderID = order.ID
	unit.Status = entity.UnitStatusSold
	return nil
}

// assignSlots asigna los perfiles pedidos (o el primero libre) al pedido.
func (uc *AllocatorUseCase) assignSlots(unit *entity.InventoryUnit, order *entity.Order, slotIDs []string, now time.Time) ([]string, error) {
	if len(slotIDs) == 0 {
		picked := ""
		for i := range unit.Profiles {
			if unit.Profiles[i].IsAssigned && unit.Profiles[i].AssignedOrderID == order.ID {
				picked = unit.Profiles[i].ID // ya asignado: idempotente
				break
			}
		}
		if picked == "" {
			for i := range unit.Profiles {
				if unit.Profiles[i].Free() {
					picked = unit.Profiles[i].ID
					break
				}
			}
		}
		if picked == "" {
			return nil, domain.ErrNoFreeSlot
		}
		slotIDs = []string{picked}
	}
	for _, sid := range slotIDs {
		s := unit.SlotByID(sid)
		if s == nil {
			return nil, domain.ErrNotFound
		}
		if s.IsAssigned && s.AssignedOrderID == order.ID {
			continue // idempotente
		}
		if s.NeedsUpdate {
			return nil, domain.ErrNeedsUpdate
		}
		if s.IsAssigned {
			return nil, domain.ErrAlreadyAssigned
		}
		s.IsAssigned = true
		s.AssignedOrderID = order.ID
		s.AssignedAt = &now
		exp := unit.ExpiryDate
		s.ExpiryAt = &exp
	}
	unit.RecomputeStatus()
	return slotIDs, nil
}

// ReleaseResult resultado de una liberación. Warning no vacío indica que la
// limpieza del inventario falló parcialmente: la referencia del pedido quedó
// limpia (lo barato de reparar) y el escaneo de huérfanos corrige el resto.
type ReleaseResult struct {
	UnitID  string
	Warning string
}

// Release desvincula el inventario del pedido. Deliberadamente secuencial y
// no transaccional: primero se limpia la referencia del pedido, después se
// libera la unidad; un fallo del segundo paso degrada a advertencia.
func (uc *AllocatorUseCase) Release(ctx context.Context, orderID, actor string) (*ReleaseResult, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	unit, err := uc.ResolveFor(ctx, order)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		if !order.HasInventoryClaim() {
			return nil, domain.ErrNotLinked
		}
		// Referencia obsoleta sin inventario real detrás: limpiar y terminar.
		order.InventoryItemID = ""
		order.InventoryProfileIDs = nil
		if err := uc.orders.Update(ctx, order); err != nil {
			return nil, err
		}
		uc.audit.Record(actor, "RELEASE", "order", orderID, "referencia obsoleta limpiada")
		return &ReleaseResult{}, nil
	}

	unlock := uc.locks.Lock(unit.ID)
	defer unlock()

	// Paso 1: limpiar la referencia del pedido.
	order.InventoryItemID = ""
	order.InventoryProfileIDs = nil
	order.UpdatedAt = uc.now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	// Paso 2: liberar la unidad o sus perfiles.
	res := &ReleaseResult{UnitID: unit.ID}
	releaseFromUnit(unit, orderID)
	if err := uc.units.UpdateGuarded(ctx, unit); err != nil {
		res.Warning = fmt.Sprintf("pedido desvinculado pero la unidad %s no pudo liberarse: %v", unit.Code, err)
		uc.audit.Record(actor, "RELEASE", "order", orderID, res.Warning)
		return res, nil
	}
	uc.audit.Record(actor, "RELEASE", "order", orderID,
		fmt.Sprintf("inventario %s liberado", unit.Code))
	return res, nil
}

// releaseFromUnit limpia el vínculo del pedido dentro de la unidad y
// recalcula el estado agregado.
func releaseFromUnit(unit *entity.InventoryUnit, orderID string) {
	if !unit.IsAccountBased {
		if unit.LinkedOrderID == orderID {
			unit.PreviousLinkedOrderID = orderID
			unit.LinkedOrderID = ""
			if unit.Status == entity.UnitStatusSold {
				unit.Status = entity.UnitStatusAvailable
			}
		}
		return
	}
	for i := range unit.Profiles {
		s := &unit.Profiles[i]
		if s.IsAssigned && s.AssignedOrderID == orderID {
			s.IsAssigned = false
			s.AssignedOrderID = ""
			s.AssignedAt = nil
			s.ExpiryAt = nil
		}
	}
	unit.RecomputeStatus()
}
