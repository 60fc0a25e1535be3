package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suscripta-api/internal/application/orders"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// CreateOrderRequest alta de un pedido.
type CreateOrderRequest struct {
	CustomerID     string          `json:"customerId"`
	PackageID      string          `json:"packageId"`
	PurchaseDate   time.Time       `json:"purchaseDate"`
	ExpiryDate     time.Time       `json:"expiryDate"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	UseCustomPrice bool            `json:"useCustomPrice"`
	CustomPrice    decimal.Decimal `json:"customPrice"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"paymentStatus"`
}

// OrderResponse proyección de lectura de un pedido con sus campos efectivos.
type OrderResponse struct {
	ID                     string                 `json:"id"`
	Code                   string                 `json:"code"`
	CustomerID             string                 `json:"customerId"`
	PackageID              string                 `json:"packageId"`
	Status                 string                 `json:"status"`
	PaymentStatus          string                 `json:"paymentStatus"`
	PurchaseDate           time.Time              `json:"purchaseDate"`
	ExpiryDate             time.Time              `json:"expiryDate"`
	EffectiveExpiry        time.Time              `json:"effectiveExpiry"`
	EffectivePaymentStatus string                 `json:"effectivePaymentStatus"`
	InventoryItemID        string                 `json:"inventoryItemId,omitempty"`
	InventoryProfileIDs    []string               `json:"inventoryProfileIds,omitempty"`
	SalePrice              decimal.Decimal        `json:"salePrice"`
	UseCustomPrice         bool                   `json:"useCustomPrice,omitempty"`
	CustomPrice            decimal.Decimal        `json:"customPrice"`
	RefundAmount           decimal.Decimal        `json:"refundAmount"`
	RefundAt               *time.Time             `json:"refundAt,omitempty"`
	Renewals               []entity.RenewalRecord `json:"renewals,omitempty"`
	RenewalMessageSent     bool                   `json:"renewalMessageSent,omitempty"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

// ToOrderResponse proyecta la vista de un pedido para la API.
func ToOrderResponse(v *orders.View) OrderResponse {
	return OrderResponse{
		ID:                     v.ID,
		Code:                   v.Code,
		CustomerID:             v.CustomerID,
		PackageID:              v.PackageID,
		Status:                 v.Status,
		PaymentStatus:          v.PaymentStatus,
		PurchaseDate:           v.PurchaseDate,
		ExpiryDate:             v.ExpiryDate,
		EffectiveExpiry:        v.EffectiveExpiry,
		EffectivePaymentStatus: v.EffectivePaymentStatus,
		InventoryItemID:        v.InventoryItemID,
		InventoryProfileIDs:    v.InventoryProfileIDs,
		SalePrice:              v.SalePrice,
		UseCustomPrice:         v.UseCustomPrice,
		CustomPrice:            v.CustomPrice,
		RefundAmount:           v.RefundAmount,
		RefundAt:               v.RefundAt,
		Renewals:               v.Renewals,
		RenewalMessageSent:     v.RenewalMessageSent,
		CreatedAt:              v.CreatedAt,
		UpdatedAt:              v.UpdatedAt,
	}
}

// ToOrderResponses proyecta una lista de vistas.
func ToOrderResponses(views []*orders.View) []OrderResponse {
	out := make([]OrderResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ToOrderResponse(v))
	}
	return out
}

// AssignRequest vinculación de inventario a un pedido.
type AssignRequest struct {
	UnitID  string   `json:"unitId"`
	SlotIDs []string `json:"slotIds"`
}

// RenewOrderRequest renovación de un pedido.
type RenewOrderRequest struct {
	Months         int             `json:"months"`
	PackageID      string          `json:"packageId"`
	Price          decimal.Decimal `json:"price"`
	UseCustomPrice bool            `json:"useCustomPrice"`
	PaymentStatus  string          `json:"paymentStatus"`
	Note           string          `json:"note"`
}

// RefundRequest emisión (o previsualización) de un reembolso prorrateado.
type RefundRequest struct {
	ErrorDate time.Time `json:"errorDate"`
}

// WarrantyReplaceRequest cierre de garantía con unidad de reemplazo.
type WarrantyReplaceRequest struct {
	UnitID  string   `json:"unitId"`
	SlotIDs []string `json:"slotIds"`
}
