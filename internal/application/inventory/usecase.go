// Package inventory (capa de aplicación) gestiona el alta y consulta de
// unidades de inventario. La validación corre completa antes de cualquier
// escritura: o se rechaza con la lista de errores de campo, o se persiste todo.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// CreateUnitInput parámetros del alta de bodega.
type CreateUnitInput struct {
	ProductID          string
	PackageID          string
	PurchaseDate       time.Time
	ExpiryDate         time.Time
	IsAccountBased     bool
	TotalSlots         int
	SlotLabels         []string
	AccountColumns     []entity.AccountColumn
	AccountData        map[string]string
	PaymentStatus      string
	PoolWarrantyMonths int
	Actor              string
}

// UseCase gestiona el catálogo de unidades.
type UseCase struct {
	units repository.InventoryRepository
	audit *audit.Recorder
	now   func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(units repository.InventoryRepository, auditor *audit.Recorder) *UseCase {
	return &UseCase{units: units, audit: auditor, now: time.Now}
}

// CreateUnit da de alta una unidad AVAILABLE con su consecutivo legible.
// Para cuentas compartidas genera los perfiles con sus etiquetas.
func (uc *UseCase) CreateUnit(ctx context.Context, in CreateUnitInput) (*entity.InventoryUnit, error) {
	var ve domain.ValidationErrors
	if in.ProductID == "" {
		ve.Add("productId", "obligatorio")
	}
	if in.ExpiryDate.IsZero() {
		ve.Add("expiryDate", "obligatoria")
	}
	if in.IsAccountBased {
		if in.TotalSlots <= 0 {
			ve.Add("totalSlots", "debe ser mayor que cero")
		}
		for _, col := range in.AccountColumns {
			if !col.Required {
				continue
			}
			if v, ok := in.AccountData[col.ID]; !ok || v == "" {
				ve.Add(col.ID, "campo obligatorio de la cuenta")
			}
		}
	}
	if len(ve) > 0 {
		return nil, ve
	}

	code, err := uc.units.NextCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("consecutivo de inventario: %w", err)
	}
	now := uc.now()
	purchase := in.PurchaseDate
	if purchase.IsZero() {
		purchase = now
	}
	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = entity.PaymentStatusUnpaid
	}

	u := &entity.InventoryUnit{
		ID:                 uuid.New().String(),
		Code:               code,
		ProductID:          in.ProductID,
		PackageID:          in.PackageID,
		PurchaseDate:       purchase,
		ExpiryDate:         in.ExpiryDate,
		Status:             entity.UnitStatusAvailable,
		IsAccountBased:     in.IsAccountBased,
		TotalSlots:         in.TotalSlots,
		AccountColumns:     in.AccountColumns,
		AccountData:        in.AccountData,
		PaymentStatus:      paymentStatus,
		PoolWarrantyMonths: in.PoolWarrantyMonths,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.IsAccountBased {
		u.Profiles = make([]entity.Slot, 0, in.TotalSlots)
		for i := 0; i < in.TotalSlots; i++ {
			label := fmt.Sprintf("Perfil %d", i+1)
			if i < len(in.SlotLabels) && in.SlotLabels[i] != "" {
				label = in.SlotLabels[i]
			}
			u.Profiles = append(u.Profiles, entity.Slot{ID: uuid.New().String(), Label: label})
		}
	}

	if err := uc.units.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("crear unidad: %w", err)
	}
	uc.audit.Record(in.Actor, "UNIT_CREATED", "inventory", u.ID,
		fmt.Sprintf("unidad %s recibida en bodega", u.Code))
	return u, nil
}

// Get devuelve la unidad por id.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.InventoryUnit, error) {
	u, err := uc.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// List devuelve una página del catálogo.
func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]*entity.InventoryUnit, error) {
	return uc.units.List(ctx, limit, offset)
}
