package allocation_test

import (
	"context"
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

type warrantyFixture struct {
	*fixture
	packages *apptest.PackageRepo
	warranty *allocation.WarrantyUseCase
}

func newWarrantyFixture(t *testing.T, pkgs ...*entity.Package) *warrantyFixture {
	t.Helper()
	f := newFixture(t)
	packages := apptest.NewPackageRepo(pkgs...)
	tx := &apptest.TxRunner{Units: f.units, Orders: f.orders}
	auditor := audit.NewRecorder(nil, logger.Nop())
	return &warrantyFixture{
		fixture:  f,
		packages: packages,
		warranty: allocation.NewWarrantyUseCase(f.allocator, allocation.NewKeyedMutex(), tx, f.units, f.orders, packages, auditor),
	}
}

func TestWarranty_AbrirYReparar_Clasica(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()
	f.units.Seed(classicUnit("u1"))
	f.orders.Seed(pendingOrder("o1"))
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))

	require.NoError(t, f.warranty.OpenCase(ctx, "o1", "ana"))

	u, _ := f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusNeedsUpdate, u.Status)
	assert.Empty(t, u.LinkedOrderID)
	assert.Equal(t, "o1", u.PreviousLinkedOrderID)

	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Empty(t, o.InventoryItemID)

	// La unidad en cuarentena no es asignable a otro pedido.
	f.orders.Seed(pendingOrder("o2"))
	err := f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o2", UnitID: "u1"})
	assert.ErrorIs(t, err, domain.ErrNeedsUpdate)

	// FIXED: misma unidad, mismo pedido, marca limpia.
	require.NoError(t, f.warranty.ResolveFixed(ctx, "o1", "ana"))
	u, _ = f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusSold, u.Status)
	assert.Equal(t, "o1", u.LinkedOrderID)
	assert.Empty(t, u.PreviousLinkedOrderID)

	o, _ = f.orders.GetByID(ctx, "o1")
	assert.Equal(t, "u1", o.InventoryItemID)
}

func TestWarranty_AbrirYReparar_Perfil(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()
	f.units.Seed(accountUnit("u1", 2))
	f.orders.Seed(pendingOrder("o1"), pendingOrder("o2"))
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1", SlotIDs: []string{"s1"}}))
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o2", UnitID: "u1", SlotIDs: []string{"s2"}}))

	require.NoError(t, f.warranty.OpenCase(ctx, "o1", "ana"))

	u, _ := f.units.GetByID(ctx, "u1")
	s1 := u.SlotByID("s1")
	assert.True(t, s1.NeedsUpdate)
	assert.Equal(t, "o1", s1.PreviousOrderID)
	assert.False(t, s1.IsAssigned)
	// Perfil en rotación no cuenta como libre: la unidad sigue SOLD.
	assert.Equal(t, entity.UnitStatusSold, u.Status)
	assert.NotNil(t, u.SlotAssignedTo("o2"), "el otro perfil no se toca")

	require.NoError(t, f.warranty.ResolveFixed(ctx, "o1", "ana"))
	u, _ = f.units.GetByID(ctx, "u1")
	s1 = u.SlotByID("s1")
	assert.False(t, s1.NeedsUpdate)
	assert.True(t, s1.IsAssigned)
	assert.Equal(t, "o1", s1.AssignedOrderID)

	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Equal(t, []string{"s1"}, o.InventoryProfileIDs)
}

func TestWarranty_ReemplazoSinCasoAbierto(t *testing.T) {
	pkg := &entity.Package{ID: "pkg-1", ProductID: "prod-1"}
	f := newWarrantyFixture(t, pkg)
	ctx := context.Background()

	original := classicUnit("u1")
	replacement := classicUnit("u2")
	replacement.Code = "INV-000009"
	f.units.Seed(original, replacement)
	order := pendingOrder("o1")
	order.PackageID = "pkg-1"
	f.orders.Seed(order)
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))

	// Sin OpenCase no hay nada que reemplazar: aceptar dejaría u1 SOLD y
	// vinculada al mismo pedido para siempre.
	err := f.warranty.ResolveReplaced(ctx, "o1", "u2", nil, "ana")
	assert.ErrorIs(t, err, domain.ErrConflict)

	u1, _ := f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusSold, u1.Status)
	assert.Equal(t, "o1", u1.LinkedOrderID)
	u2, _ := f.units.GetByID(ctx, "u2")
	assert.Equal(t, entity.UnitStatusAvailable, u2.Status)
	assert.Empty(t, u2.LinkedOrderID)
	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Equal(t, "u1", o.InventoryItemID)
}

func TestWarranty_Reemplazo(t *testing.T) {
	pkg := &entity.Package{ID: "pkg-1", ProductID: "prod-1"}
	f := newWarrantyFixture(t, pkg)
	ctx := context.Background()

	original := classicUnit("u1")
	replacement := classicUnit("u2")
	replacement.Code = "INV-000009"
	f.units.Seed(original, replacement)
	order := pendingOrder("o1")
	order.PackageID = "pkg-1"
	f.orders.Seed(order)
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))
	require.NoError(t, f.warranty.OpenCase(ctx, "o1", "ana"))

	require.NoError(t, f.warranty.ResolveReplaced(ctx, "o1", "u2", nil, "ana"))

	o, _ := f.orders.GetByID(ctx, "o1")
	assert.Equal(t, "u2", o.InventoryItemID)

	u2, _ := f.units.GetByID(ctx, "u2")
	assert.Equal(t, "o1", u2.LinkedOrderID)

	// La original permanece en cuarentena hasta la limpieza manual.
	u1, _ := f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusNeedsUpdate, u1.Status)

	require.NoError(t, f.warranty.ClearNeedsUpdate(ctx, "u1", "", "ana"))
	u1, _ = f.units.GetByID(ctx, "u1")
	assert.Equal(t, entity.UnitStatusAvailable, u1.Status)
	assert.Empty(t, u1.PreviousLinkedOrderID)
}

func TestWarranty_ReemplazoInelegible(t *testing.T) {
	pkg := &entity.Package{ID: "pkg-1", ProductID: "prod-1"}
	f := newWarrantyFixture(t, pkg)
	ctx := context.Background()

	original := classicUnit("u1")
	wrongPackage := classicUnit("u2")
	wrongPackage.PackageID = "pkg-otro"
	f.units.Seed(original, wrongPackage)
	order := pendingOrder("o1")
	order.PackageID = "pkg-1"
	f.orders.Seed(order)
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))
	require.NoError(t, f.warranty.OpenCase(ctx, "o1", "ana"))

	err := f.warranty.ResolveReplaced(ctx, "o1", "u2", nil, "ana")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestWarranty_PoolCompartidoAceptaOtroPaquete(t *testing.T) {
	pkg := &entity.Package{ID: "pkg-1", ProductID: "prod-1", SharedPool: true}
	f := newWarrantyFixture(t, pkg)
	ctx := context.Background()

	original := classicUnit("u1")
	candidate := classicUnit("u2")
	candidate.PackageID = "pkg-otro" // mismo producto, paquete distinto
	f.units.Seed(original, candidate)
	order := pendingOrder("o1")
	order.PackageID = "pkg-1"
	f.orders.Seed(order)
	require.NoError(t, f.allocator.Assign(ctx, allocation.AssignInput{OrderID: "o1", UnitID: "u1"}))
	require.NoError(t, f.warranty.OpenCase(ctx, "o1", "ana"))

	require.NoError(t, f.warranty.ResolveReplaced(ctx, "o1", "u2", nil, "ana"))
}

func TestWarranty_PedidoReembolsado(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()
	refunded := pendingOrder("o1")
	refunded.PaymentStatus = entity.PaymentStatusRefunded
	f.orders.Seed(refunded)

	assert.ErrorIs(t, f.warranty.OpenCase(ctx, "o1", "ana"), domain.ErrTerminalState)
	assert.ErrorIs(t, f.warranty.ResolveFixed(ctx, "o1", "ana"), domain.ErrTerminalState)
}

func TestWarranty_ClearSinMarcaEsConflicto(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()
	f.units.Seed(classicUnit("u1"))

	err := f.warranty.ClearNeedsUpdate(ctx, "u1", "", "ana")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestKeyedMutex_Exclusion(t *testing.T) {
	km := allocation.NewKeyedMutex()
	unlock := km.Lock("u1")

	acquired := make(chan struct{})
	go func() {
		u := km.Lock("u1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("el segundo Lock no debió avanzar mientras el primero está tomado")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("el segundo Lock debió avanzar tras liberar el primero")
	}
}
