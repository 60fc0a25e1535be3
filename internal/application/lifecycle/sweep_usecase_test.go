package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripta-api/internal/application/apptest"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

func TestSweep_AplicaTransicionesYEsIdempotente(t *testing.T) {
	units := apptest.NewInventoryRepo()
	orders := apptest.NewOrderRepo()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	units.Seed(
		// Disponible y vencida: expira.
		&entity.InventoryUnit{ID: "u1", Code: "INV-1", Status: entity.UnitStatusAvailable, ExpiryDate: past},
		// EXPIRED con vigencia renovada al futuro: revierte a AVAILABLE.
		&entity.InventoryUnit{ID: "u2", Code: "INV-2", Status: entity.UnitStatusExpired, ExpiryDate: future},
		// Vendida y vencida: el pedido manda, la unidad no se toca.
		&entity.InventoryUnit{ID: "u3", Code: "INV-3", Status: entity.UnitStatusSold, ExpiryDate: past, LinkedOrderID: "o9"},
		// Vigente: sin cambios.
		&entity.InventoryUnit{ID: "u4", Code: "INV-4", Status: entity.UnitStatusAvailable, ExpiryDate: future},
	)
	orders.Seed(
		&entity.Order{ID: "o1", Code: "ORD-1", Status: entity.OrderStatusCompleted, PaymentStatus: entity.PaymentStatusPaid, ExpiryDate: past},
		&entity.Order{ID: "o2", Code: "ORD-2", Status: entity.OrderStatusExpired, PaymentStatus: entity.PaymentStatusPaid, ExpiryDate: future},
		// Reembolsado pero todavía no cancelado: el barrido lo fuerza.
		&entity.Order{ID: "o3", Code: "ORD-3", Status: entity.OrderStatusCompleted, PaymentStatus: entity.PaymentStatusRefunded, ExpiryDate: future},
	)

	uc := NewSweepUseCase(units, orders, logger.Nop())
	uc.now = func() time.Time { return now }
	ctx := context.Background()

	report, err := uc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.UnitsExpired)
	assert.Equal(t, 1, report.UnitsReverted)
	assert.Equal(t, 1, report.OrdersExpired)
	assert.Equal(t, 1, report.OrdersReverted)
	assert.Equal(t, 1, report.OrdersCancelled)
	assert.True(t, report.Changed())

	u1, _ := units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusExpired, u1.Status)
	u2, _ := units.GetByID(ctx, "u2")
	assert.Equal(t, entity.UnitStatusAvailable, u2.Status)
	u3, _ := units.GetByID(ctx, "u3")
	assert.Equal(t, entity.UnitStatusSold, u3.Status)
	o3, _ := orders.GetByID(ctx, "o3")
	assert.Equal(t, entity.OrderStatusCancelled, o3.Status)

	// La segunda pasada con el mismo reloj no encuentra nada que corregir.
	report, err = uc.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Changed())
}
