// Package orders (capa de aplicación) gestiona el alta y consulta de pedidos.
// Las proyecciones efectivas (vigencia y estado de pago derivados de la
// cadena de renovaciones) se calculan en cada lectura, nunca se cachean.
package orders

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

// CreateOrderInput parámetros del alta de pedido.
type CreateOrderInput struct {
	CustomerID     string
	PackageID      string
	PurchaseDate   time.Time
	ExpiryDate     time.Time // vacía = compra + garantía del paquete
	SalePrice      decimal.Decimal
	UseCustomPrice bool
	CustomPrice    decimal.Decimal
	Status         string
	PaymentStatus  string
	Actor          string
}

// View es la proyección de lectura de un pedido: estado efectivo recalculado
// sobre el agregado en cada lectura.
type View struct {
	*entity.Order
	EffectiveExpiry        time.Time `json:"effectiveExpiry"`
	EffectivePaymentStatus string    `json:"effectivePaymentStatus"`
}

// UseCase gestiona pedidos.
type UseCase struct {
	orders    repository.OrderRepository
	packages  repository.PackageRepository
	customers repository.CustomerRepository
	audit     *audit.Recorder
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	orders repository.OrderRepository,
	packages repository.PackageRepository,
	customers repository.CustomerRepository,
	auditor *audit.Recorder,
) *UseCase {
	return &UseCase{orders: orders, packages: packages, customers: customers, audit: auditor, now: time.Now}
}

// Create valida y da de alta un pedido. La foto del precio de venta se toma
// aquí y no vuelve a cambiar.
func (uc *UseCase) Create(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	var ve domain.ValidationErrors
	if in.CustomerID == "" {
		ve.Add("customerId", "obligatorio")
	}
	if in.PackageID == "" {
		ve.Add("packageId", "obligatorio")
	}
	if in.UseCustomPrice && !in.CustomPrice.GreaterThan(decimal.Zero) {
		ve.Add("customPrice", "debe ser mayor que cero")
	}
	if len(ve) > 0 {
		return nil, ve
	}

	customer, err := uc.customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	pkg, err := uc.packages.GetByID(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	purchase := in.PurchaseDate
	if purchase.IsZero() {
		purchase = now
	}
	expiry := in.ExpiryDate
	if expiry.IsZero() {
		months := pkg.WarrantyMonths
		if months <= 0 {
			months = 1
		}
		expiry = domrenewal.AddCalendarMonths(purchase, months)
	}
	salePrice := in.SalePrice
	if !salePrice.GreaterThan(decimal.Zero) {
		salePrice = pkg.TierPrice(customer.Tier)
	}
	status := in.Status
	if status == "" {
		status = entity.OrderStatusCompleted
	}
	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = entity.PaymentStatusUnpaid
	}

	code, err := uc.orders.NextCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("consecutivo de pedidos: %w", err)
	}
	o := &entity.Order{
		ID:             uuid.New().String(),
		Code:           code,
		CustomerID:     in.CustomerID,
		PackageID:      in.PackageID,
		Status:         status,
		PaymentStatus:  paymentStatus,
		PurchaseDate:   purchase,
		ExpiryDate:     expiry,
		SalePrice:      salePrice,
		UseCustomPrice: in.UseCustomPrice,
		CustomPrice:    in.CustomPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("crear pedido: %w", err)
	}
	uc.audit.Record(in.Actor, "ORDER_CREATED", "order", o.ID,
		fmt.Sprintf("pedido %s creado para el cliente %s", o.Code, customer.Name))
	return o, nil
}

// Get devuelve el pedido con sus proyecciones efectivas.
func (uc *UseCase) Get(ctx context.Context, id string) (*View, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return project(o), nil
}

// List devuelve una página de pedidos proyectados.
func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]*View, error) {
	list, err := uc.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*View, 0, len(list))
	for _, o := range list {
		out = append(out, project(o))
	}
	return out, nil
}

func project(o *entity.Order) *View {
	return &View{
		Order:                  o,
		EffectiveExpiry:        domrenewal.EffectiveExpiry(o),
		EffectivePaymentStatus: domrenewal.EffectivePaymentStatus(o),
	}
}
