package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// CreateUnitRequest alta de una unidad de inventario.
type CreateUnitRequest struct {
	ProductID          string                 `json:"productId"`
	PackageID          string                 `json:"packageId"`
	PurchaseDate       time.Time              `json:"purchaseDate"`
	ExpiryDate         time.Time              `json:"expiryDate"`
	IsAccountBased     bool                   `json:"isAccountBased"`
	TotalSlots         int                    `json:"totalSlots"`
	SlotLabels         []string               `json:"slotLabels"`
	AccountColumns     []entity.AccountColumn `json:"accountColumns"`
	AccountData        map[string]string      `json:"accountData"`
	PaymentStatus      string                 `json:"paymentStatus"`
	PoolWarrantyMonths int                    `json:"poolWarrantyMonths"`
}

// UnitResponse proyección de lectura de una unidad. Los campos de credencial
// marcados secretos salen enmascarados.
type UnitResponse struct {
	ID                    string                 `json:"id"`
	Code                  string                 `json:"code"`
	ProductID             string                 `json:"productId"`
	PackageID             string                 `json:"packageId,omitempty"`
	PurchaseDate          time.Time              `json:"purchaseDate"`
	ExpiryDate            time.Time              `json:"expiryDate"`
	Status                string                 `json:"status"`
	IsAccountBased        bool                   `json:"isAccountBased"`
	TotalSlots            int                    `json:"totalSlots,omitempty"`
	FreeSlots             int                    `json:"freeSlots"`
	Profiles              []entity.Slot          `json:"profiles,omitempty"`
	AccountColumns        []entity.AccountColumn `json:"accountColumns,omitempty"`
	AccountData           map[string]string      `json:"accountData,omitempty"`
	LinkedOrderID         string                 `json:"linkedOrderId,omitempty"`
	PreviousLinkedOrderID string                 `json:"previousLinkedOrderId,omitempty"`
	PaymentStatus         string                 `json:"paymentStatus,omitempty"`
	Version               int                    `json:"version"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

// ToUnitResponse proyecta la entidad para la API.
func ToUnitResponse(u *entity.InventoryUnit) UnitResponse {
	free := 0
	if u.IsAccountBased {
		free = u.FreeSlots()
	} else if u.Status == entity.UnitStatusAvailable {
		free = 1
	}
	return UnitResponse{
		ID:                    u.ID,
		Code:                  u.Code,
		ProductID:             u.ProductID,
		PackageID:             u.PackageID,
		PurchaseDate:          u.PurchaseDate,
		ExpiryDate:            u.ExpiryDate,
		Status:                u.Status,
		IsAccountBased:        u.IsAccountBased,
		TotalSlots:            u.TotalSlots,
		FreeSlots:             free,
		Profiles:              u.Profiles,
		AccountColumns:        u.AccountColumns,
		AccountData:           u.RedactedAccountData(),
		LinkedOrderID:         u.LinkedOrderID,
		PreviousLinkedOrderID: u.PreviousLinkedOrderID,
		PaymentStatus:         u.PaymentStatus,
		Version:               u.Version,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

// ToUnitResponses proyecta una lista de unidades.
func ToUnitResponses(units []*entity.InventoryUnit) []UnitResponse {
	out := make([]UnitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, ToUnitResponse(u))
	}
	return out
}

// RenewStockRequest renovación a nivel de stock.
type RenewStockRequest struct {
	Months        int             `json:"months"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentStatus string          `json:"paymentStatus"`
	Note          string          `json:"note"`
}

// UpdatePaymentStatusRequest edición del estado de pago de una renovación.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// ClearNeedsUpdateRequest salida manual de la cuarentena de credencial.
type ClearNeedsUpdateRequest struct {
	SlotID string `json:"slotId"`
}
