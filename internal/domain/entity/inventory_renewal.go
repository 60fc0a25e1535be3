package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRenewal es una renovación a nivel de stock: extiende la vigencia
// de una unidad directamente, independiente de cualquier pedido (se usa para
// stock de pool compartido). Mismo invariante que las renovaciones de pedido:
// NewExpiryDate = PreviousExpiryDate + Months; inmutable salvo PaymentStatus.
type InventoryRenewal struct {
	ID                 string
	InventoryID        string
	Months             int
	Amount             decimal.Decimal
	PreviousExpiryDate time.Time
	NewExpiryDate      time.Time
	Note               string
	PaymentStatus      string
	CreatedAt          time.Time
	CreatedBy          string
}
