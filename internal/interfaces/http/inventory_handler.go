package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripta-api/internal/application/allocation"
	"github.com/jhoicas/Suscripta-api/internal/application/dto"
	"github.com/jhoicas/Suscripta-api/internal/application/inventory"
	"github.com/jhoicas/Suscripta-api/internal/application/lifecycle"
	"github.com/jhoicas/Suscripta-api/internal/application/renewal"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del catálogo de inventario.
type InventoryHandler struct {
	uc         *inventory.UseCase
	renewStock *renewal.RenewStockUseCase
	warranty   *allocation.WarrantyUseCase
	sweep      *lifecycle.SweepUseCase
	activity   repository.ActivityLogRepository
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	uc *inventory.UseCase,
	renewStock *renewal.RenewStockUseCase,
	warranty *allocation.WarrantyUseCase,
	sweep *lifecycle.SweepUseCase,
	activity repository.ActivityLogRepository,
) *InventoryHandler {
	return &InventoryHandler{uc: uc, renewStock: renewStock, warranty: warranty, sweep: sweep, activity: activity}
}

// Create godoc
// @Summary      Dar de alta una unidad de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUnitRequest  true  "productId, expiryDate; totalSlots y accountColumns para cuentas compartidas"
// @Success      201   {object}  dto.UnitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUnitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	u, err := h.uc.CreateUnit(c.Context(), inventory.CreateUnitInput{
		ProductID:          in.ProductID,
		PackageID:          in.PackageID,
		PurchaseDate:       in.PurchaseDate,
		ExpiryDate:         in.ExpiryDate,
		IsAccountBased:     in.IsAccountBased,
		TotalSlots:         in.TotalSlots,
		SlotLabels:         in.SlotLabels,
		AccountColumns:     in.AccountColumns,
		AccountData:        in.AccountData,
		PaymentStatus:      in.PaymentStatus,
		PoolWarrantyMonths: in.PoolWarrantyMonths,
		Actor:              GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToUnitResponse(u))
}

// List godoc
// @Summary      Listar el catálogo de inventario
// @Description  Aplica primero el barrido de expiración: los estados que devuelve ya están alineados con el reloj.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {array}   dto.UnitResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	if _, err := h.sweep.Run(c.Context()); err != nil {
		return respondError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	units, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": dto.ToUnitResponses(units),
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// GetByID godoc
// @Summary      Consultar una unidad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la unidad"
// @Success      200  {object}  dto.UnitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	u, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToUnitResponse(u))
}

// RenewStock godoc
// @Summary      Renovar una unidad a nivel de stock
// @Description  Extiende la vigencia de la unidad en meses calendario, independiente de cualquier pedido.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la unidad"
// @Param        body  body  dto.RenewStockRequest  true  "months, amount"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/renewals [post]
func (h *InventoryHandler) RenewStock(c *fiber.Ctx) error {
	var in dto.RenewStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.renewStock.Renew(c.Context(), renewal.RenewStockInput{
		UnitID:        c.Params("id"),
		Months:        in.Months,
		Amount:        in.Amount,
		PaymentStatus: in.PaymentStatus,
		Note:          in.Note,
		Actor:         GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// ListRenewals godoc
// @Summary      Historial de renovaciones de stock de una unidad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la unidad"
// @Success      200  {array}  entity.InventoryRenewal
// @Router       /api/inventory/{id}/renewals [get]
func (h *InventoryHandler) ListRenewals(c *fiber.Ctx) error {
	list, err := h.renewStock.ListByInventory(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// UpdateRenewalPayment godoc
// @Summary      Editar el estado de pago de una renovación de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Param        id         path  string  true  "ID de la unidad"
// @Param        renewalId  path  string  true  "ID de la renovación"
// @Param        body       body  dto.UpdatePaymentStatusRequest  true  "paymentStatus"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/renewals/{renewalId}/payment [put]
func (h *InventoryHandler) UpdateRenewalPayment(c *fiber.Ctx) error {
	var in dto.UpdatePaymentStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.renewStock.UpdatePaymentStatus(c.Context(), c.Params("renewalId"), in.PaymentStatus, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearNeedsUpdate godoc
// @Summary      Confirmar la rotación de una credencial
// @Description  Saca la unidad (o un perfil) del estado NEEDS_UPDATE y la devuelve al stock disponible.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID de la unidad"
// @Param        body  body  dto.ClearNeedsUpdateRequest  false  "slotId para cuentas compartidas"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/clear-needs-update [post]
func (h *InventoryHandler) ClearNeedsUpdate(c *fiber.Ctx) error {
	var in dto.ClearNeedsUpdateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if err := h.warranty.ClearNeedsUpdate(c.Context(), c.Params("id"), in.SlotID, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activity godoc
// @Summary      Líneas de actividad de una unidad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la unidad"
// @Success      200  {array}  entity.ActivityLog
// @Router       /api/inventory/{id}/activity [get]
func (h *InventoryHandler) Activity(c *fiber.Ctx) error {
	list, err := h.activity.ListByEntity(c.Context(), "inventory", c.Params("id"), 50)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
