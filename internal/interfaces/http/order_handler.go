package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripta-api/internal/application/allocation"
	"github.com/jhoicas/Suscripta-api/internal/application/billing"
	"github.com/jhoicas/Suscripta-api/internal/application/dto"
	"github.com/jhoicas/Suscripta-api/internal/application/lifecycle"
	"github.com/jhoicas/Suscripta-api/internal/application/orders"
	"github.com/jhoicas/Suscripta-api/internal/application/renewal"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// OrderHandler maneja las peticiones HTTP del ciclo de vida de pedidos:
// alta, vinculación de inventario, renovación, reembolso y garantía.
type OrderHandler struct {
	uc        *orders.UseCase
	allocator *allocation.AllocatorUseCase
	warranty  *allocation.WarrantyUseCase
	renew     *renewal.RenewOrderUseCase
	refund    *billing.RefundUseCase
	sweep     *lifecycle.SweepUseCase
	activity  repository.ActivityLogRepository
}

// NewOrderHandler construye el handler.
func NewOrderHandler(
	uc *orders.UseCase,
	allocator *allocation.AllocatorUseCase,
	warranty *allocation.WarrantyUseCase,
	renew *renewal.RenewOrderUseCase,
	refund *billing.RefundUseCase,
	sweep *lifecycle.SweepUseCase,
	activity repository.ActivityLogRepository,
) *OrderHandler {
	return &OrderHandler{uc: uc, allocator: allocator, warranty: warranty, renew: renew, refund: refund, sweep: sweep, activity: activity}
}

// Create godoc
// @Summary      Crear un pedido
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "customerId, packageId; expiryDate vacía = compra + garantía del paquete"
// @Success      201   {object}  entity.Order
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	o, err := h.uc.Create(c.Context(), orders.CreateOrderInput{
		CustomerID:     in.CustomerID,
		PackageID:      in.PackageID,
		PurchaseDate:   in.PurchaseDate,
		ExpiryDate:     in.ExpiryDate,
		SalePrice:      in.SalePrice,
		UseCustomPrice: in.UseCustomPrice,
		CustomPrice:    in.CustomPrice,
		Status:         in.Status,
		PaymentStatus:  in.PaymentStatus,
		Actor:          GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

// List godoc
// @Summary      Listar pedidos
// @Description  Aplica primero el barrido de expiración y devuelve cada pedido con su vigencia y estado de pago efectivos.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {array}   dto.OrderResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	if _, err := h.sweep.Run(c.Context()); err != nil {
		return respondError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	views, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": dto.ToOrderResponses(views),
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// GetByID godoc
// @Summary      Consultar un pedido
// @Description  Incluye la unidad de inventario que lo respalda según la cadena de resolución, si hay alguna.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	v, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := fiber.Map{"order": dto.ToOrderResponse(v)}
	if unit, err := h.allocator.ResolveFor(c.Context(), v.Order); err == nil && unit != nil {
		out["inventory"] = dto.ToUnitResponse(unit)
	}
	return c.JSON(out)
}

// Assign godoc
// @Summary      Vincular inventario a un pedido
// @Description  Reasignar el mismo pedido es idempotente; un conflicto de carrera o una unidad ocupada devuelven 409.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.AssignRequest  true  "unitId; slotIds opcional (vacío = primer perfil libre)"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/assign [post]
func (h *OrderHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.allocator.Assign(c.Context(), allocation.AssignInput{
		OrderID: c.Params("id"),
		UnitID:  in.UnitID,
		SlotIDs: in.SlotIDs,
		Actor:   GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Release godoc
// @Summary      Desvincular el inventario de un pedido
// @Description  Limpia primero la referencia del pedido; si la liberación de la unidad falla, responde 200 con una advertencia y el escaneo de huérfanos termina la limpieza después.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  allocation.ReleaseResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/release [post]
func (h *OrderHandler) Release(c *fiber.Ctx) error {
	res, err := h.allocator.Release(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Renew godoc
// @Summary      Renovar un pedido
// @Description  Agrega un registro inmutable a la cadena y avanza la vigencia efectiva en meses calendario.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.RenewOrderRequest  true  "months, paymentStatus; packageId opcional para cambiar de paquete"
// @Success      201   {object}  entity.RenewalRecord
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/renewals [post]
func (h *OrderHandler) Renew(c *fiber.Ctx) error {
	var in dto.RenewOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.renew.Renew(c.Context(), renewal.RenewOrderInput{
		OrderID:        c.Params("id"),
		Months:         in.Months,
		PackageID:      in.PackageID,
		Price:          in.Price,
		UseCustomPrice: in.UseCustomPrice,
		PaymentStatus:  in.PaymentStatus,
		Note:           in.Note,
		Actor:          GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// UpdateRenewalPayment godoc
// @Summary      Editar el estado de pago de una renovación
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Param        id         path  string  true  "ID del pedido"
// @Param        renewalId  path  string  true  "ID de la renovación"
// @Param        body       body  dto.UpdatePaymentStatusRequest  true  "paymentStatus"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/renewals/{renewalId}/payment [put]
func (h *OrderHandler) UpdateRenewalPayment(c *fiber.Ctx) error {
	var in dto.UpdatePaymentStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.renew.UpdatePaymentStatus(c.Context(), c.Params("id"), c.Params("renewalId"), in.PaymentStatus, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RefundPreview godoc
// @Summary      Previsualizar un reembolso prorrateado
// @Description  Calcula el ciclo aplicable y el monto (redondeado al piso de mil pesos) sin escribir nada.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.RefundRequest  false  "errorDate vacía = ahora"
// @Success      200   {object}  billing.RefundPreview
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/refund/preview [post]
func (h *OrderHandler) RefundPreview(c *fiber.Ctx) error {
	var in dto.RefundRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	p, err := h.refund.Preview(c.Context(), c.Params("id"), in.ErrorDate)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// Refund godoc
// @Summary      Emitir un reembolso prorrateado
// @Description  Terminal: fija REFUNDED + CANCELLED y el monto no se recalcula nunca. Un pedido ya reembolsado devuelve 409.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.RefundRequest  false  "errorDate vacía = ahora"
// @Success      200   {object}  entity.Order
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *fiber.Ctx) error {
	var in dto.RefundRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	o, err := h.refund.Issue(c.Context(), c.Params("id"), in.ErrorDate, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(o)
}

// WarrantyOpen godoc
// @Summary      Abrir un caso de garantía
// @Description  Desvincula el inventario del pedido y deja la credencial en cuarentena (NEEDS_UPDATE) con el pedido de origen registrado.
// @Tags         warranty
// @Security     Bearer
// @Param        id  path  string  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/warranty/open [post]
func (h *OrderHandler) WarrantyOpen(c *fiber.Ctx) error {
	if err := h.warranty.OpenCase(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// WarrantyFixed godoc
// @Summary      Cerrar garantía: credencial reparada
// @Description  Re-vincula la misma unidad/perfil al pedido y limpia la marca de rotación.
// @Tags         warranty
// @Security     Bearer
// @Param        id  path  string  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/warranty/fixed [post]
func (h *OrderHandler) WarrantyFixed(c *fiber.Ctx) error {
	if err := h.warranty.ResolveFixed(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// WarrantyReplaced godoc
// @Summary      Cerrar garantía: unidad reemplazada
// @Description  Vincula una unidad elegible (mismo paquete, o mismo producto en pool compartido); la original sigue en cuarentena.
// @Tags         warranty
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.WarrantyReplaceRequest  true  "unitId del reemplazo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/warranty/replaced [post]
func (h *OrderHandler) WarrantyReplaced(c *fiber.Ctx) error {
	var in dto.WarrantyReplaceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.warranty.ResolveReplaced(c.Context(), c.Params("id"), in.UnitID, in.SlotIDs, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activity godoc
// @Summary      Líneas de actividad de un pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {array}  entity.ActivityLog
// @Router       /api/orders/{id}/activity [get]
func (h *OrderHandler) Activity(c *fiber.Ctx) error {
	list, err := h.activity.ListByEntity(c.Context(), "order", c.Params("id"), 50)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
