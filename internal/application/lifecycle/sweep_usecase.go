// Package lifecycle (capa de aplicación) aplica el barrido de expiración.
// No hay un timer de fondo: el barrido se dispara en cada carga de catálogo
// o de pedidos (pull-driven) y es idempotente por construcción.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	domlifecycle "github.com/jhoicas/Suscripta-api/internal/domain/lifecycle"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

// SweepReport resume las transiciones aplicadas en una pasada.
type SweepReport struct {
	UnitsExpired    int `json:"unitsExpired"`
	UnitsReverted   int `json:"unitsReverted"`
	OrdersExpired   int `json:"ordersExpired"`
	OrdersReverted  int `json:"ordersReverted"`
	OrdersCancelled int `json:"ordersCancelled"`
}

// Changed indica si la pasada aplicó alguna transición.
func (r SweepReport) Changed() bool {
	return r.UnitsExpired+r.UnitsReverted+r.OrdersExpired+r.OrdersReverted+r.OrdersCancelled > 0
}

// SweepUseCase ejecuta el barrido sobre todo el inventario y los pedidos.
type SweepUseCase struct {
	units  repository.InventoryRepository
	orders repository.OrderRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewSweepUseCase construye el caso de uso.
func NewSweepUseCase(units repository.InventoryRepository, orders repository.OrderRepository, log *logger.Logger) *SweepUseCase {
	return &SweepUseCase{units: units, orders: orders, log: log, now: time.Now}
}

// Run aplica las transiciones derivadas del reloj. Las correcciones solo
// mueven el estado hacia la consistencia, así que es seguro correrlo
// concurrente con el tráfico normal.
func (uc *SweepUseCase) Run(ctx context.Context) (*SweepReport, error) {
	now := uc.now()
	report := &SweepReport{}

	units, err := uc.units.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("barrido: listar inventario: %w", err)
	}
	for _, u := range units {
		status, changed := domlifecycle.NextUnitStatus(u, now)
		if !changed {
			continue
		}
		if status == entity.UnitStatusExpired {
			report.UnitsExpired++
		} else {
			report.UnitsReverted++
		}
		u.Status = status
		u.UpdatedAt = now
		if err := uc.units.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("barrido: actualizar unidad %s: %w", u.Code, err)
		}
	}

	orders, err := uc.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("barrido: listar pedidos: %w", err)
	}
	for _, o := range orders {
		status, changed := domlifecycle.NextOrderStatus(o, now)
		if !changed {
			continue
		}
		switch status {
		case entity.OrderStatusCancelled:
			report.OrdersCancelled++
		case entity.OrderStatusExpired:
			report.OrdersExpired++
		default:
			report.OrdersReverted++
		}
		o.Status = status
		o.UpdatedAt = now
		if err := uc.orders.Update(ctx, o); err != nil {
			return nil, fmt.Errorf("barrido: actualizar pedido %s: %w", o.Code, err)
		}
	}

	if report.Changed() {
		uc.log.Info().
			Int("units_expired", report.UnitsExpired).
			Int("units_reverted", report.UnitsReverted).
			Int("orders_expired", report.OrdersExpired).
			Int("orders_reverted", report.OrdersReverted).
			Int("orders_cancelled", report.OrdersCancelled).
			Msg("barrido de expiración aplicado")
	}
	return report, nil
}
