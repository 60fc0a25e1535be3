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

func TestRenewStock_ExtiendeLaUnidad(t *testing.T) {
	units := apptest.NewInventoryRepo()
	renewals := apptest.NewInventoryRenewalRepo()
	units.Seed(&entity.InventoryUnit{
		ID:         "u1",
		Code:       "INV-000001",
		ProductID:  "prod-1",
		Status:     entity.UnitStatusAvailable,
		ExpiryDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	uc := renewal.NewRenewStockUseCase(units, renewals, audit.NewRecorder(nil, logger.Nop()))
	ctx := context.Background()

	rec, err := uc.Renew(ctx, renewal.RenewStockInput{
		UnitID: "u1",
		Months: 1,
		Amount: decimal.NewFromInt(20000),
		Actor:  "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), rec.PreviousExpiryDate)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), rec.NewExpiryDate, "tope de fin de mes")
	assert.Equal(t, entity.PaymentStatusUnpaid, rec.PaymentStatus)

	u, _ := units.GetByID(ctx, "u1")
	assert.True(t, u.ExpiryDate.Equal(rec.NewExpiryDate))

	history, err := uc.ListByInventory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	require.NoError(t, uc.UpdatePaymentStatus(ctx, rec.ID, entity.PaymentStatusPaid, "ana"))
	got, _ := renewals.GetByID(ctx, rec.ID)
	assert.Equal(t, entity.PaymentStatusPaid, got.PaymentStatus)
}

func TestRenewStock_Validaciones(t *testing.T) {
	uc := renewal.NewRenewStockUseCase(apptest.NewInventoryRepo(), apptest.NewInventoryRenewalRepo(), audit.NewRecorder(nil, logger.Nop()))
	ctx := context.Background()

	var ve domain.ValidationErrors
	_, err := uc.Renew(ctx, renewal.RenewStockInput{UnitID: "u1", Months: 0})
	require.ErrorAs(t, err, &ve)

	_, err = uc.Renew(ctx, renewal.RenewStockInput{UnitID: "no-existe", Months: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, uc.UpdatePaymentStatus(ctx, "r1", "PENDIENTE", "ana"), domain.ErrInvalidInput)
}
