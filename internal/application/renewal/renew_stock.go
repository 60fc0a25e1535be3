package renewal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	domrenewal "github.com/jhoicas/Suscripta-api/internal/domain/renewal"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// RenewStockInput parámetros de una renovación a nivel de stock.
type RenewStockInput struct {
	UnitID        string
	Months        int
	Amount        decimal.Decimal
	PaymentStatus string
	Note          string
	Actor         string
}

// RenewStockUseCase extiende la vigencia de una unidad directamente (stock de
// pool compartido), independiente de cualquier pedido. Mismo patrón
// agregar-y-extender que las renovaciones de pedido.
type RenewStockUseCase struct {
	units    repository.InventoryRepository
	renewals repository.InventoryRenewalRepository
	audit    *audit.Recorder
	now      func() time.Time
}

// NewRenewStockUseCase construye el caso de uso.
func NewRenewStockUseCase(
	units repository.InventoryRepository,
	renewals repository.InventoryRenewalRepository,
	auditor *audit.Recorder,
) *RenewStockUseCase {
	return &RenewStockUseCase{units: units, renewals: renewals, audit: auditor, now: time.Now}
}

// Renew agrega el registro y corre la vigencia de la unidad. El barrido de
// expiración revierte a AVAILABLE una unidad EXPIRED cuya vigencia volvió al
// futuro, en la próxima carga de catálogo.
func (uc *RenewStockUseCase) Renew(ctx context.Context, in RenewStockInput) (*entity.InventoryRenewal, error) {
	var ve domain.ValidationErrors
	if in.Months <= 0 {
		ve.Add("months", "debe ser mayor que cero")
	}
	if in.Amount.LessThan(decimal.Zero) {
		ve.Add("amount", "no puede ser negativo")
	}
	if len(ve) > 0 {
		return nil, ve
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = entity.PaymentStatusUnpaid
	}

	unit, err := uc.units.GetByID(ctx, in.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrNotFound
	}

	prev := unit.ExpiryDate
	next := domrenewal.AddCalendarMonths(prev, in.Months)
	rec := &entity.InventoryRenewal{
		ID:                 uuid.New().String(),
		InventoryID:        unit.ID,
		Months:             in.Months,
		Amount:             in.Amount,
		PreviousExpiryDate: prev,
		NewExpiryDate:      next,
		Note:               in.Note,
		PaymentStatus:      in.PaymentStatus,
		CreatedAt:          uc.now(),
		CreatedBy:          in.Actor,
	}
	if err := uc.renewals.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("guardar renovación de stock: %w", err)
	}
	unit.ExpiryDate = next
	unit.UpdatedAt = uc.now()
	if err := uc.units.UpdateGuarded(ctx, unit); err != nil {
		return nil, err
	}
	uc.audit.Record(in.Actor, "RENEW_STOCK", "inventory", unit.ID,
		fmt.Sprintf("stock %s renovado %d mes(es) hasta %s", unit.Code, in.Months, next.Format("2006-01-02")))
	return rec, nil
}

// UpdatePaymentStatus edita el estado de pago de una renovación de stock
// (única mutación permitida sobre el registro).
func (uc *RenewStockUseCase) UpdatePaymentStatus(ctx context.Context, renewalID, status, actor string) error {
	switch status {
	case entity.PaymentStatusPaid, entity.PaymentStatusUnpaid, entity.PaymentStatusRefunded:
	default:
		return domain.ErrInvalidInput
	}
	rec, err := uc.renewals.GetByID(ctx, renewalID)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if err := uc.renewals.UpdatePaymentStatus(ctx, renewalID, status); err != nil {
		return err
	}
	uc.audit.Record(actor, "RENEWAL_PAYMENT", "inventory", rec.InventoryID,
		fmt.Sprintf("renovación de stock %s marcada %s", renewalID, status))
	return nil
}

// ListByInventory devuelve el historial de renovaciones de una unidad.
func (uc *RenewStockUseCase) ListByInventory(ctx context.Context, unitID string) ([]*entity.InventoryRenewal, error) {
	return uc.renewals.ListByInventory(ctx, unitID)
}
