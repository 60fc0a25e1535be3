package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripta-api/internal/application/apptest"
	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/application/billing"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRefundUseCase(orders *apptest.OrderRepo) *billing.RefundUseCase {
	pkgs := apptest.NewPackageRepo(&entity.Package{ID: "pkg-1", ProductID: "prod-1", WarrantyMonths: 1})
	customers := apptest.NewCustomerRepo(&entity.Customer{ID: "c1", Tier: entity.TierRetail})
	return billing.NewRefundUseCase(orders, pkgs, customers, audit.NewRecorder(nil, logger.Nop()))
}

func paidOrder() *entity.Order {
	return &entity.Order{
		ID:            "o1",
		Code:          "ORD-000001",
		CustomerID:    "c1",
		PackageID:     "pkg-1",
		Status:        entity.OrderStatusCompleted,
		PaymentStatus: entity.PaymentStatusPaid,
		PurchaseDate:  date(2026, 1, 1),
		ExpiryDate:    date(2026, 2, 1),
		SalePrice:     decimal.NewFromInt(300000),
	}
}

func TestPreview_ProrrateoDelCicloBase(t *testing.T) {
	orders := apptest.NewOrderRepo()
	orders.Seed(paidOrder())
	uc := newRefundUseCase(orders)

	// Ciclo de 31 días, quedan 16: 300000*16/31 redondeado y al piso de mil.
	p, err := uc.Preview(context.Background(), "o1", date(2026, 1, 16))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 1, 1), p.CycleStart)
	assert.Equal(t, date(2026, 2, 1), p.CycleEnd)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(154000)), "got %s", p.Amount)
}

func TestPreview_CicloDeLaUltimaRenovacion(t *testing.T) {
	orders := apptest.NewOrderRepo()
	o := paidOrder()
	o.ExpiryDate = date(2026, 3, 1)
	o.Renewals = []entity.RenewalRecord{{
		ID:                 "r1",
		Months:             1,
		Price:              decimal.NewFromInt(100000),
		PreviousExpiryDate: date(2026, 2, 1),
		NewExpiryDate:      date(2026, 3, 1),
		PaymentStatus:      entity.PaymentStatusPaid,
		CreatedAt:          date(2026, 1, 28),
	}}
	orders.Seed(o)
	uc := newRefundUseCase(orders)

	p, err := uc.Preview(context.Background(), "o1", date(2026, 2, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 2, 1), p.CycleStart, "el ciclo aplicable es el de la renovación")
	assert.True(t, p.CyclePrice.Equal(decimal.NewFromInt(100000)))
}

func TestIssue_EsTerminalYUnaSolaVez(t *testing.T) {
	orders := apptest.NewOrderRepo()
	orders.Seed(paidOrder())
	uc := newRefundUseCase(orders)
	ctx := context.Background()

	got, err := uc.Issue(ctx, "o1", date(2026, 1, 16), "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusRefunded, got.PaymentStatus)
	assert.Equal(t, entity.OrderStatusCancelled, got.Status)
	assert.True(t, got.RefundAmount.Equal(decimal.NewFromInt(154000)))
	require.NotNil(t, got.RefundAt)

	// Segunda emisión: rechazada sin recalcular.
	_, err = uc.Issue(ctx, "o1", date(2026, 1, 20), "ana")
	assert.ErrorIs(t, err, domain.ErrTerminalState)

	o, _ := orders.GetByID(ctx, "o1")
	assert.True(t, o.RefundAmount.Equal(decimal.NewFromInt(154000)), "el monto original no se toca")
}

func TestIssue_DespuesDelVencimientoReembolsaCero(t *testing.T) {
	orders := apptest.NewOrderRepo()
	orders.Seed(paidOrder())
	uc := newRefundUseCase(orders)

	got, err := uc.Issue(context.Background(), "o1", date(2026, 3, 15), "ana")
	require.NoError(t, err)
	assert.True(t, got.RefundAmount.IsZero())
	assert.Equal(t, entity.PaymentStatusRefunded, got.PaymentStatus, "el estado cambia aunque el monto sea cero")
}

func TestPreview_PedidoInexistente(t *testing.T) {
	uc := newRefundUseCase(apptest.NewOrderRepo())
	_, err := uc.Preview(context.Background(), "no-existe", time.Time{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
