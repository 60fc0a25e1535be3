package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripta-api/internal/application/dto"
	"github.com/jhoicas/Suscripta-api/internal/domain"
)

// respondError traduce los errores del dominio a códigos HTTP. Los errores de
// validación salen con la lista de campos; todo lo no mapeado es un 500.
func respondError(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidation(err); ok {
		out := dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
		for _, fe := range ve {
			out.Fields = append(out.Fields, dto.FieldError{Field: fe.Field, Message: fe.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(out)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrNotLinked):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_LINKED", Message: "el pedido no tiene inventario vinculado"})
	case errors.Is(err, domain.ErrTerminalState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TERMINAL_STATE", Message: "el pedido está reembolsado y no admite cambios"})
	case errors.Is(err, domain.ErrAlreadyAssigned):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_ASSIGNED", Message: "la unidad o el perfil ya respalda otro pedido"})
	case errors.Is(err, domain.ErrNoFreeSlot):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_FREE_SLOT", Message: "la cuenta no tiene perfiles libres"})
	case errors.Is(err, domain.ErrNeedsUpdate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NEEDS_UPDATE", Message: "la credencial está pendiente de rotación"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "la operación entra en conflicto con el estado actual"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
