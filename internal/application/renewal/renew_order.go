// Package renewal (capa de aplicación) agrega registros inmutables de
// renovación a pedidos y unidades de stock, y extiende la vigencia efectiva.
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

// RenewOrderInput parámetros de una renovación de pedido.
type RenewOrderInput struct {
	OrderID        string
	Months         int
	PackageID      string // vacío = conservar el paquete actual
	Price          decimal.Decimal
	UseCustomPrice bool
	PaymentStatus  string
	Note           string
	Actor          string
}

// RenewOrderUseCase agrega una renovación a la cadena del pedido.
type RenewOrderUseCase struct {
	orders    repository.OrderRepository
	packages  repository.PackageRepository
	customers repository.CustomerRepository
	audit     *audit.Recorder
	now       func() time.Time
}

// NewRenewOrderUseCase construye el caso de uso.
func NewRenewOrderUseCase(
	orders repository.OrderRepository,
	packages repository.PackageRepository,
	customers repository.CustomerRepository,
	auditor *audit.Recorder,
) *RenewOrderUseCase {
	return &RenewOrderUseCase{orders: orders, packages: packages, customers: customers, audit: auditor, now: time.Now}
}

// Renew valida, agrega el registro y avanza la vigencia efectiva. El registro
// captura el vencimiento previo, el nuevo, los meses y el precio cobrado:
// nunca se recalculan después. Una renovación invalida cualquier recordatorio
// de renovación ya enviado.
func (uc *RenewOrderUseCase) Renew(ctx context.Context, in RenewOrderInput) (*entity.RenewalRecord, error) {
	var ve domain.ValidationErrors
	if in.Months <= 0 {
		ve.Add("months", "debe ser mayor que cero")
	}
	if in.UseCustomPrice && !in.Price.GreaterThan(decimal.Zero) {
		ve.Add("price", "el precio manual debe ser mayor que cero")
	}
	switch in.PaymentStatus {
	case entity.PaymentStatusPaid, entity.PaymentStatusUnpaid:
	default:
		ve.Add("paymentStatus", "debe ser PAID o UNPAID")
	}
	if len(ve) > 0 {
		return nil, ve
	}

	order, err := uc.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.IsRefunded() {
		return nil, domain.ErrTerminalState
	}

	price := in.Price
	if !in.UseCustomPrice && !price.GreaterThan(decimal.Zero) {
		price, err = uc.listPrice(ctx, order, in.PackageID)
		if err != nil {
			return nil, err
		}
	}

	prev := domrenewal.EffectiveExpiry(order)
	next := domrenewal.AddCalendarMonths(prev, in.Months)

	rec := entity.RenewalRecord{
		ID:                 uuid.New().String(),
		Months:             in.Months,
		PackageID:          in.PackageID,
		PreviousPackageID:  order.PackageID,
		Price:              price,
		UseCustomPrice:     in.UseCustomPrice,
		PreviousExpiryDate: prev,
		NewExpiryDate:      next,
		Note:               in.Note,
		PaymentStatus:      in.PaymentStatus,
		CreatedAt:          uc.now(),
		CreatedBy:          in.Actor,
	}
	if rec.PackageID == "" {
		rec.PackageID = order.PackageID
	}

	order.Renewals = append(order.Renewals, rec)
	order.ExpiryDate = next
	if in.PackageID != "" {
		order.PackageID = in.PackageID
	}
	// El recordatorio enviado quedó obsoleto con la nueva vigencia.
	order.RenewalMessageSent = false
	order.RenewalMessageSentAt = nil
	order.RenewalMessageSentBy = ""
	order.UpdatedAt = uc.now()

	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("guardar renovación: %w", err)
	}
	uc.audit.Record(in.Actor, "RENEW", "order", order.ID,
		fmt.Sprintf("renovado %d mes(es) hasta %s por %s", in.Months, next.Format("2006-01-02"), price))
	return &rec, nil
}

// listPrice resuelve el precio de lista cuando la renovación no trae precio:
// paquete destino (o el actual) al nivel del cliente.
func (uc *RenewOrderUseCase) listPrice(ctx context.Context, order *entity.Order, packageID string) (decimal.Decimal, error) {
	if packageID == "" {
		packageID = order.PackageID
	}
	pkg, err := uc.packages.GetByID(ctx, packageID)
	if err != nil {
		return decimal.Zero, err
	}
	if pkg == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	tier := entity.TierRetail
	if customer, err := uc.customers.GetByID(ctx, order.CustomerID); err == nil && customer != nil && customer.Tier != "" {
		tier = customer.Tier
	}
	return pkg.TierPrice(tier), nil
}

// UpdatePaymentStatus es la única mutación sancionada sobre un registro ya
// creado; queda auditada por separado.
func (uc *RenewOrderUseCase) UpdatePaymentStatus(ctx context.Context, orderID, renewalID, status, actor string) error {
	switch status {
	case entity.PaymentStatusPaid, entity.PaymentStatusUnpaid, entity.PaymentStatusRefunded:
	default:
		return domain.ErrInvalidInput
	}
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if order.IsRefunded() {
		return domain.ErrTerminalState
	}
	found := false
	for i := range order.Renewals {
		if order.Renewals[i].ID == renewalID {
			order.Renewals[i].PaymentStatus = status
			found = true
			break
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	order.UpdatedAt = uc.now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return err
	}
	uc.audit.Record(actor, "RENEWAL_PAYMENT", "order", orderID,
		fmt.Sprintf("renovación %s marcada %s", renewalID, status))
	return nil
}
