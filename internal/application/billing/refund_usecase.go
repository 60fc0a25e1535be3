// Package billing (capa de aplicación) calcula y emite reembolsos
// prorrateados. Emitir un reembolso es terminal: fija REFUNDED + CANCELLED y
// el monto nunca se recalcula ni se revierte automáticamente.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/refund"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// RefundPreview es el desglose del cálculo, para que el operador confirme
// antes de emitir.
type RefundPreview struct {
	CycleStart time.Time       `json:"cycleStart"`
	CycleEnd   time.Time       `json:"cycleEnd"`
	CyclePrice decimal.Decimal `json:"cyclePrice"`
	Amount     decimal.Decimal `json:"amount"`
}

// RefundUseCase emite reembolsos prorrateados.
type RefundUseCase struct {
	orders    repository.OrderRepository
	packages  repository.PackageRepository
	customers repository.CustomerRepository
	audit     *audit.Recorder
	now       func() time.Time
}

// NewRefundUseCase construye el caso de uso.
func NewRefundUseCase(
	orders repository.OrderRepository,
	packages repository.PackageRepository,
	customers repository.CustomerRepository,
	auditor *audit.Recorder,
) *RefundUseCase {
	return &RefundUseCase{orders: orders, packages: packages, customers: customers, audit: auditor, now: time.Now}
}

// Preview calcula el ciclo aplicable y el monto sin escribir nada.
func (uc *RefundUseCase) Preview(ctx context.Context, orderID string, errorDate time.Time) (*RefundPreview, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return uc.preview(ctx, order, errorDate)
}

func (uc *RefundUseCase) preview(ctx context.Context, order *entity.Order, errorDate time.Time) (*RefundPreview, error) {
	if errorDate.IsZero() {
		errorDate = uc.now()
	}
	pkg, err := uc.packages.GetByID(ctx, order.PackageID)
	if err != nil {
		return nil, err
	}
	customer, err := uc.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	cycle := refund.ApplicableCycle(order, pkg, customer)
	return &RefundPreview{
		CycleStart: cycle.Start,
		CycleEnd:   cycle.End,
		CyclePrice: cycle.Price,
		Amount:     refund.Amount(cycle, errorDate),
	}, nil
}

// Issue emite el reembolso: REFUNDED es absorbente, un pedido ya reembolsado
// se rechaza sin recalcular nada.
func (uc *RefundUseCase) Issue(ctx context.Context, orderID string, errorDate time.Time, actor string) (*entity.Order, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.IsRefunded() {
		return nil, domain.ErrTerminalState
	}
	p, err := uc.preview(ctx, order, errorDate)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	order.PaymentStatus = entity.PaymentStatusRefunded
	order.Status = entity.OrderStatusCancelled
	order.RefundAmount = p.Amount
	order.RefundAt = &now
	order.UpdatedAt = now
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("guardar reembolso: %w", err)
	}
	uc.audit.Record(actor, "REFUND", "order", order.ID,
		fmt.Sprintf("reembolso de %s emitido; pedido cancelado", p.Amount))
	return order, nil
}
