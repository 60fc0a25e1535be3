// Package repair contiene los escaneos de reconciliación disparados por un
// operador. Todos son explícitos, idempotentes y auditados: solo mueven el
// estado hacia la consistencia y nunca inventan asignaciones nuevas, así que
// es seguro correrlos concurrentes con el tráfico normal.
package repair

import (
	"context"
	"fmt"

	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	domalloc "github.com/jhoicas/Suscripta-api/internal/domain/allocation"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	domrenewal "github.com/jhoicas/Suscripta-api/internal/domain/renewal"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

// Report resume una pasada de reparación.
type Report struct {
	Scanned  int      `json:"scanned"`
	Repaired int      `json:"repaired"`
	Details  []string `json:"details,omitempty"`
}

// UseCase agrupa los escaneos de reparación.
type UseCase struct {
	units  repository.InventoryRepository
	orders repository.OrderRepository
	audit  *audit.Recorder
	log    *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(units repository.InventoryRepository, orders repository.OrderRepository, auditor *audit.Recorder, log *logger.Logger) *UseCase {
	return &UseCase{units: units, orders: orders, audit: auditor, log: log}
}

// ClearStaleReferences limpia (o re-apunta) los reclamos de inventario que ya
// no se sostienen: si la cadena de resolución no encuentra nada, el reclamo
// colgante se borra; si encuentra la unidad real en otra parte, se re-apunta.
func (uc *UseCase) ClearStaleReferences(ctx context.Context, actor string) (*Report, error) {
	units, err := uc.units.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reparación: listar inventario: %w", err)
	}
	orders, err := uc.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reparación: listar pedidos: %w", err)
	}

	report := &Report{}
	for _, o := range orders {
		if !o.HasInventoryClaim() {
			continue
		}
		report.Scanned++
		resolved := domalloc.ResolveInventoryFor(o, units)
		switch {
		case resolved == nil:
			o.InventoryItemID = ""
			o.InventoryProfileIDs = nil
		case resolved.ID != o.InventoryItemID:
			o.InventoryItemID = resolved.ID
			o.InventoryProfileIDs = assignedSlotIDs(resolved, o.ID)
		default:
			continue
		}
		if err := uc.orders.Update(ctx, o); err != nil {
			return nil, fmt.Errorf("reparación: pedido %s: %w", o.Code, err)
		}
		report.Repaired++
		report.Details = append(report.Details, fmt.Sprintf("pedido %s: referencia corregida", o.Code))
	}
	uc.audit.Record(actor, "REPAIR_STALE_REFS", "order", "*",
		fmt.Sprintf("%d pedidos revisados, %d reparados", report.Scanned, report.Repaired))
	return report, nil
}

// ReleaseOrphanedAllocations libera unidades/perfiles ocupados por pedidos
// que ya no existen en el conjunto vivo.
func (uc *UseCase) ReleaseOrphanedAllocations(ctx context.Context, actor string) (*Report, error) {
	units, err := uc.units.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reparación: listar inventario: %w", err)
	}

	var ids []string
	for _, u := range units {
		if u.LinkedOrderID != "" {
			ids = append(ids, u.LinkedOrderID)
		}
		for _, s := range u.Profiles {
			if s.IsAssigned && s.AssignedOrderID != "" {
				ids = append(ids, s.AssignedOrderID)
			}
		}
	}
	existing, err := uc.orders.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reparación: verificar pedidos: %w", err)
	}

	report := &Report{}
	for _, u := range units {
		report.Scanned++
		changed := false
		if !u.IsAccountBased && u.LinkedOrderID != "" && !existing[u.LinkedOrderID] {
			u.PreviousLinkedOrderID = u.LinkedOrderID
			u.LinkedOrderID = ""
			if u.Status == entity.UnitStatusSold {
				u.Status = entity.UnitStatusAvailable
			}
			changed = true
		}
		for i := range u.Profiles {
			s := &u.Profiles[i]
			if s.IsAssigned && s.AssignedOrderID != "" && !existing[s.AssignedOrderID] {
				s.IsAssigned = false
				s.AssignedOrderID = ""
				s.AssignedAt = nil
				s.ExpiryAt = nil
				changed = true
			}
		}
		if !changed {
			continue
		}
		u.RecomputeStatus()
		if err := uc.units.UpdateGuarded(ctx, u); err != nil {
			// Otra escritura ganó: el escaneo es idempotente, se reintenta luego.
			uc.log.Warn().Err(err).Str("unit", u.Code).Msg("reparación: unidad no liberada")
			continue
		}
		report.Repaired++
		report.Details = append(report.Details, fmt.Sprintf("unidad %s: asignación huérfana liberada", u.Code))
	}
	uc.audit.Record(actor, "REPAIR_ORPHANS", "inventory", "*",
		fmt.Sprintf("%d unidades revisadas, %d liberadas", report.Scanned, report.Repaired))
	return report, nil
}

// ReconcileRenewalExpiry corrige pedidos cuya vigencia almacenada discrepa de
// la última renovación de su cadena.
func (uc *UseCase) ReconcileRenewalExpiry(ctx context.Context, actor string) (*Report, error) {
	orders, err := uc.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reparación: listar pedidos: %w", err)
	}
	report := &Report{}
	for _, o := range orders {
		if len(o.Renewals) == 0 {
			continue
		}
		report.Scanned++
		want := domrenewal.EffectiveExpiry(o)
		if o.ExpiryDate.Equal(want) {
			continue
		}
		o.ExpiryDate = want
		if err := uc.orders.Update(ctx, o); err != nil {
			return nil, fmt.Errorf("reparación: pedido %s: %w", o.Code, err)
		}
		report.Repaired++
		report.Details = append(report.Details, fmt.Sprintf("pedido %s: vigencia realineada a %s", o.Code, want.Format("2006-01-02")))
	}
	uc.audit.Record(actor, "REPAIR_RENEWAL_EXPIRY", "order", "*",
		fmt.Sprintf("%d pedidos con renovaciones revisados, %d corregidos", report.Scanned, report.Repaired))
	return report, nil
}

func assignedSlotIDs(u *entity.InventoryUnit, orderID string) []string {
	var out []string
	for _, s := range u.Profiles {
		if s.IsAssigned && s.AssignedOrderID == orderID {
			out = append(out, s.ID)
		}
	}
	return out
}
