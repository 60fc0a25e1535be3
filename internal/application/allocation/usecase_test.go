package allocation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripta-api/internal/application/allocation"
	"github.com/jhoicas/Suscripta-api/internal/application/apptest"
	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

type fixture struct {
	units     *apptest.InventoryRepo
	orders    *apptest.OrderRepo
	allocator *allocation.AllocatorUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	units := apptest.NewInventoryRepo()
	orders := apptest.NewOrderRepo()
	tx := &apptest.TxRunner{Units: units, Orders: orders}
	auditor := audit.NewRecorder(nil, logger.Nop())
	return &fixture{
		units:     units,
		orders:    orders,
		allocator: allocation.NewAllocatorUseCase(allocation.NewKeyedMutex(), tx, units, orders, auditor),
	}
}

func classicUnit(id string) *entity.InventoryUnit {
	return &entity.InventoryUnit{
		ID:         id,
		Code:       "INV-000001",
		ProductID:  "prod-1",
		PackageID:  "pkg-1",
		Status:     entity.UnitStatusAvailable,
		ExpiryDate: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func accountUnit(id string, slots int) *entity.InventoryUnit {
	u := &entity.InventoryUnit{
		ID:             id,
		Code:           "INV-000002",
		ProductID:      "prod-1",
		PackageID:      "pkg-1",
		Status:         entity.UnitStatusAvailable,
		IsAccountBased: true,
		TotalSlots:     slots,
		ExpiryDate:     time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < slots; i++ {
		u.Profiles = append(u.Profiles, entity.Slot{ID: "s" + string(rune('1'+i)), Label: "Perfil"})
	}
	return u
}

func pendingOrder(id string) *entity.Order {
	return &entity.Order{
		ID:            id,
		Code:          "ORD-000001",
		Status:        entity.OrderStatusProcessing,
		PaymentStatus: entity.PaymentStatusPaid,
	}
}

func TestAssign_Clasica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(classicUnit("u1"))
	f.orders.Seed(pendingOrder("o1"))

	err := f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1", Actor: "ana"})
	require.NoError(t, err)

	u, _ := f.units.GetByID(ctx, "u1")
	assert.Equal(t, "o1", u.LinkedOrderID)
	assert.Equal(t, entity.UnitStatusSold, u.Status)

	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Equal(t, "u1", o.InventoryItemID)

	// Reasignar el mismo pedido es idempotente.
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1", Actor: "ana"}))

	// Un segundo pedido sobre la misma unidad clásica se rechaza.
	f.orders.Seed(pendingOrder("o2"))
	err = f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o2", UnitID: "u1", Actor: "ana"})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}

func TestAssign_RechazaEstadosNoVendibles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	needsUpdate := classicUnit("u1")
	needsUpdate.Status = entity.UnitStatusNeedsUpdate
	expired := classicUnit("u2")
	expired.Status = entity.UnitStatusExpired
	f.units.Seed(needsUpdate, expired)
	f.orders.Seed(pendingOrder("o1"))

	assert.ErrorIs(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}), domain.ErrNeedsUpdate)
	assert.ErrorIs(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u2"}), domain.ErrConflict)
}

func TestAssign_PedidoReembolsadoEsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(classicUnit("u1"))
	refunded := pendingOrder("o1")
	refunded.PaymentStatus = entity.PaymentStatusRefunded
	f.orders.Seed(refunded)

	err := f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"})
	assert.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestAssign_PerfilesAccountBased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(accountUnit("u1", 2))
	f.orders.Seed(pendingOrder("o1"), pendingOrder("o2"), pendingOrder("o3"))

	// Sin slotIds: elige el primer perfil libre.
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))
	o1, _ := f.orders.GetByID(ctx, "o1")
	require.Len(t, o1.InventoryProfileIDs, 1)

	u, _ := f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusAvailable, u.Status, "queda un perfil libre")

	// Segundo pedido ocupa el último perfil: la unidad pasa a SOLD.
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o2", UnitID: "u1"}))
	u, _ = f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusSold, u.Status)

	// Sin cupo para un tercero.
	err := f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o3", UnitID: "u1"})
	assert.ErrorIs(t, err, domain.ErrNoFreeSlot)
}

func TestAssign_PerfilOcupadoPorOtroPedido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(accountUnit("u1", 2))
	f.orders.Seed(pendingOrder("o1"), pendingOrder("o2"))

	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1", SlotIDs: []string{"s1"}}))
	err := f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o2", UnitID: "u1", SlotIDs: []string{"s1"}})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}

// Dos asignaciones concurrentes sobre la misma unidad clásica: exactamente
// una debe ganar. El cerrojo por unidad serializa dentro del proceso y la
// guarda por versión cubre el resto.
func TestAssign_ConcurrenciaUnSoloGanador(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(classicUnit("u1"))
	f.orders.Seed(pendingOrder("o1"), pendingOrder("o2"))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, orderID := range []string{"o1", "o2"} {
		wg.Add(1)
		go func(i int, orderID string) {
			defer wg.Done()
			errs[i] = f.allocator.Assign(ctx, allocation.AssignInput{OrderID: orderID, UnitID: "u1"})
		}(i, orderID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
		}
	}
	assert.Equal(t, 1, winners)

	u, _ := f.units.GetByID(ctx, "u1")
	assert.NotEmpty(t, u.LinkedOrderID)
}

func TestResolveFor_CadenaSobreCandidatos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	linked := classicUnit("u1")
	linked.LinkedOrderID = "o1"
	linked.Status = entity.UnitStatusSold
	f.units.Seed(linked)

	order := pendingOrder("o1")
	// Referencia directa obsoleta: apunta a una unidad inexistente.
	order.InventoryItemID = "u-borrada"
	f.orders.Seed(order)

	got, err := f.allocator.ResolveFor(ctx, order)
	require.NoError(t, err)
	require.NotNil(t, got, "el vínculo clásico sostiene la resolución aunque la referencia directa esté rota")
	assert.Equal(t, "u1", got.ID)
}

func TestRelease_LimpiaPedidoPrimero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(classicUnit("u1"))
	f.orders.Seed(pendingOrder("o1"))
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))

	res, err := f.allocator.Release(ctx, "o1", "ana")
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Empty(t, o.InventoryItemID)
	assert.Empty(t, o.InventoryProfileIDs)

	u, _ := f.units.GetByID(ctx, "u1")
	assert.Empty(t, u.LinkedOrderID)
	assert.Equal(t, "o1", u.PreviousLinkedOrderID)
	assert.Equal(t, entity.UnitStatusAvailable, u.Status)
}

func TestRelease_PerfilAccountBased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.units.Seed(accountUnit("u1", 2))
	f.orders.Seed(pendingOrder("o1"), pendingOrder("o2"))
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o2", UnitID: "u1"}))

	_, err := f.allocator.Release(ctx, "o1", "ana")
	require.NoError(t, err)

	u, _ := f.units.GetByID(ctx, "u1")
	assert.Equal(t, 1, u.FreeSlots())
	assert.Nil(t, u.SlotAssignedTo("o1"))
	assert.NotNil(t, u.SlotAssignedTo("o2"), "el otro pedido conserva su perfil")
	assert.Equal(t, entity.UnitStatusAvailable, u.Status)
}

func TestRelease_SinVinculo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Seed(pendingOrder("o1"))

	_, err := f.allocator.Release(ctx, "o1", "ana")
	assert.ErrorIs(t, err, domain.ErrNotLinked)
}

func TestRelease_ReferenciaObsoletaSeLimpia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := pendingOrder("o1")
	order.InventoryItemID = "u-borrada"
	f.orders.Seed(order)

	res, err := f.allocator.Release(ctx, "o1", "ana")
	require.NoError(t, err)
	assert.Empty(t, res.UnitID)

	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Empty(t, o.InventoryItemID)
}
