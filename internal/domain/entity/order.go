package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido.
const (
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusExpired    = "EXPIRED"
)

// Estados de pago (de pedidos, renovaciones y unidades de inventario).
const (
	PaymentStatusUnpaid   = "UNPAID"
	PaymentStatusPaid     = "PAID"
	PaymentStatusRefunded = "REFUNDED"
)

// RenewalRecord es un registro inmutable de renovación: extiende la vigencia
// del pedido preservando el precio histórico del ciclo. Una vez creado solo
// admite la edición auditada de PaymentStatus.
type RenewalRecord struct {
	ID                 string          `json:"id"`
	Months             int             `json:"months"`
	PackageID          string          `json:"packageId,omitempty"`
	PreviousPackageID  string          `json:"previousPackageId,omitempty"`
	Price              decimal.Decimal `json:"price"`
	UseCustomPrice     bool            `json:"useCustomPrice,omitempty"`
	PreviousExpiryDate time.Time       `json:"previousExpiryDate"`
	NewExpiryDate      time.Time       `json:"newExpiryDate"`
	Note               string          `json:"note,omitempty"`
	PaymentStatus      string          `json:"paymentStatus"`
	CreatedAt          time.Time       `json:"createdAt"`
	CreatedBy          string          `json:"createdBy,omitempty"`
}

// Order es un pedido de un bien digital por suscripción. ExpiryDate es la
// vigencia efectiva actual: avanza con cada renovación.
type Order struct {
	ID         string
	Code       string // consecutivo legible, único (ORD-000123)
	CustomerID string
	PackageID  string

	Status        string
	PaymentStatus string

	PurchaseDate time.Time
	ExpiryDate   time.Time

	// Reclamo del pedido sobre el inventario.
	InventoryItemID     string
	InventoryProfileIDs []string

	SalePrice      decimal.Decimal // foto del precio al momento de la venta
	UseCustomPrice bool
	CustomPrice    decimal.Decimal

	RefundAmount decimal.Decimal
	RefundAt     *time.Time

	// Renewals es un log ordenado por creación, solo-agregar.
	Renewals []RenewalRecord

	RenewalMessageSent   bool
	RenewalMessageSentAt *time.Time
	RenewalMessageSentBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRefunded indica si el pedido alcanzó el estado terminal: una vez
// reembolsado no se permite ninguna transición posterior.
func (o *Order) IsRefunded() bool {
	return o.PaymentStatus == PaymentStatusRefunded
}

// HasInventoryClaim indica si el pedido referencia inventario (la referencia
// puede estar obsoleta; la resolución decide si se sostiene).
func (o *Order) HasInventoryClaim() bool {
	return o.InventoryItemID != "" || len(o.InventoryProfileIDs) > 0
}
