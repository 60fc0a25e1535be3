package renewal_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripta-api/internal/application/apptest"
	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/application/renewal"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

func newRenewUseCase(orders *apptest.OrderRepo, pkgs *apptest.PackageRepo, customers *apptest.CustomerRepo) *renewal.RenewOrderUseCase {
	return renewal.NewRenewOrderUseCase(orders, pkgs, customers, audit.NewRecorder(nil, logger.Nop()))
}

func seedOrder(orders *apptest.OrderRepo) *entity.Order {
	o := &entity.Order{
		ID:            "o1",
		Code:          "ORD-000001",
		CustomerID:    "c1",
		PackageID:     "pkg-1",
		Status:        entity.OrderStatusCompleted,
		PaymentStatus: entity.PaymentStatusPaid,
		PurchaseDate:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		ExpiryDate:    time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
	}
	orders.Seed(o)
	return o
}

func TestRenew_AgregaRegistroYAvanzaVigencia(t *testing.T) {
	orders := apptest.NewOrderRepo()
	seedOrder(orders)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())
	ctx := context.Background()

	rec, err := uc.Renew(ctx, renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         2,
		Price:          decimal.NewFromInt(50000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusPaid,
		Actor:          "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), rec.PreviousExpiryDate)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), rec.NewExpiryDate)
	assert.Equal(t, "pkg-1", rec.PackageID)
	assert.Equal(t, "pkg-1", rec.PreviousPackageID)

	o, _ := orders.GetByID(ctx, "o1")
	require.Len(t, o.Renewals, 1)
	assert.Equal(t, rec.NewExpiryDate, o.ExpiryDate)

	// La segunda renovación encadena sobre la vigencia de la primera.
	rec2, err := uc.Renew(ctx, renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         1,
		Price:          decimal.NewFromInt(25000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusUnpaid,
		Actor:          "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, rec.NewExpiryDate, rec2.PreviousExpiryDate)
	assert.Equal(t, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), rec2.NewExpiryDate)
}

func TestRenew_PrecioDeListaPorNivel(t *testing.T) {
	orders := apptest.NewOrderRepo()
	seedOrder(orders)
	pkgs := apptest.NewPackageRepo(&entity.Package{
		ID:        "pkg-1",
		ProductID: "prod-1",
		Prices: map[string]decimal.Decimal{
			entity.TierRetail:   decimal.NewFromInt(40000),
			entity.TierReseller: decimal.NewFromInt(30000),
		},
	})
	customers := apptest.NewCustomerRepo(&entity.Customer{ID: "c1", Tier: entity.TierReseller})
	uc := newRenewUseCase(orders, pkgs, customers)

	rec, err := uc.Renew(context.Background(), renewal.RenewOrderInput{
		OrderID:       "o1",
		Months:        1,
		PaymentStatus: entity.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.True(t, rec.Price.Equal(decimal.NewFromInt(30000)), "precio del nivel RESELLER")
}

func TestRenew_CambioDePaquete(t *testing.T) {
	orders := apptest.NewOrderRepo()
	seedOrder(orders)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())
	ctx := context.Background()

	rec, err := uc.Renew(ctx, renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         1,
		PackageID:      "pkg-2",
		Price:          decimal.NewFromInt(60000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, "pkg-2", rec.PackageID)
	assert.Equal(t, "pkg-1", rec.PreviousPackageID, "el registro preserva el paquete anterior")

	o, _ := orders.GetByID(ctx, "o1")
	assert.Equal(t, "pkg-2", o.PackageID)
}

func TestRenew_InvalidaRecordatorioEnviado(t *testing.T) {
	orders := apptest.NewOrderRepo()
	o := seedOrder(orders)
	sent := time.Now()
	o.RenewalMessageSent = true
	o.RenewalMessageSentAt = &sent
	o.RenewalMessageSentBy = "ana"
	orders.Seed(o)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())

	_, err := uc.Renew(context.Background(), renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         1,
		Price:          decimal.NewFromInt(10000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusPaid,
	})
	require.NoError(t, err)

	got, _ := orders.GetByID(context.Background(), "o1")
	assert.False(t, got.RenewalMessageSent)
	assert.Nil(t, got.RenewalMessageSentAt)
	assert.Empty(t, got.RenewalMessageSentBy)
}

func TestRenew_Validaciones(t *testing.T) {
	orders := apptest.NewOrderRepo()
	seedOrder(orders)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())
	ctx := context.Background()

	_, err := uc.Renew(ctx, renewal.RenewOrderInput{OrderID: "o1", Months: 0, PaymentStatus: entity.PaymentStatusPaid})
	var ve domain.ValidationErrors
	require.ErrorAs(t, err, &ve)

	_, err = uc.Renew(ctx, renewal.RenewOrderInput{OrderID: "o1", Months: 1, UseCustomPrice: true, PaymentStatus: entity.PaymentStatusPaid})
	require.ErrorAs(t, err, &ve, "precio manual en cero")

	_, err = uc.Renew(ctx, renewal.RenewOrderInput{OrderID: "o1", Months: 1, PaymentStatus: "REFUNDED"})
	require.ErrorAs(t, err, &ve, "una renovación no nace reembolsada")
}

func TestRenew_PedidoReembolsadoEsTerminal(t *testing.T) {
	orders := apptest.NewOrderRepo()
	o := seedOrder(orders)
	o.PaymentStatus = entity.PaymentStatusRefunded
	orders.Seed(o)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())

	_, err := uc.Renew(context.Background(), renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         1,
		Price:          decimal.NewFromInt(10000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusPaid,
	})
	assert.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestUpdatePaymentStatus_PedidoReembolsadoEsTerminal(t *testing.T) {
	orders := apptest.NewOrderRepo()
	seedOrder(orders)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())
	ctx := context.Background()

	rec, err := uc.Renew(ctx, renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         1,
		Price:          decimal.NewFromInt(10000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusUnpaid,
	})
	require.NoError(t, err)

	o, _ := orders.GetByID(ctx, "o1")
	o.PaymentStatus = entity.PaymentStatusRefunded
	o.Status = entity.OrderStatusCancelled
	orders.Seed(o)

	// REFUNDED es absorbente: ni siquiera el campo sancionado se edita.
	err = uc.UpdatePaymentStatus(ctx, "o1", rec.ID, entity.PaymentStatusPaid, "ana")
	assert.ErrorIs(t, err, domain.ErrTerminalState)

	o, _ = orders.GetByID(ctx, "o1")
	assert.Equal(t, entity.PaymentStatusUnpaid, o.Renewals[0].PaymentStatus)
}

func TestUpdatePaymentStatus_RegistroExistente(t *testing.T) {
	orders := apptest.NewOrderRepo()
	seedOrder(orders)
	uc := newRenewUseCase(orders, apptest.NewPackageRepo(), apptest.NewCustomerRepo())
	ctx := context.Background()

	rec, err := uc.Renew(ctx, renewal.RenewOrderInput{
		OrderID:        "o1",
		Months:         1,
		Price:          decimal.NewFromInt(10000),
		UseCustomPrice: true,
		PaymentStatus:  entity.PaymentStatusUnpaid,
	})
	require.NoError(t, err)

	require.NoError(t, uc.UpdatePaymentStatus(ctx, "o1", rec.ID, entity.PaymentStatusPaid, "ana"))
	o, _ := orders.GetByID(ctx, "o1")
	assert.Equal(t, entity.PaymentStatusPaid, o.Renewals[0].PaymentStatus)

	assert.ErrorIs(t, uc.UpdatePaymentStatus(ctx, "o1", "no-existe", entity.PaymentStatusPaid, "ana"), domain.ErrNotFound)
	assert.ErrorIs(t, uc.UpdatePaymentStatus(ctx, "o1", rec.ID, "PENDIENTE", "ana"), domain.ErrInvalidInput)
}
