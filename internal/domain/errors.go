package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrAlreadyAssigned = errors.New("la unidad ya está vinculada a otro pedido")
	ErrNoFreeSlot      = errors.New("la cuenta no tiene perfiles libres")
	ErrNeedsUpdate     = errors.New("la credencial está pendiente de rotación")
	ErrNotLinked       = errors.New("el pedido no tiene inventario vinculado")
	ErrTerminalState   = errors.New("el pedido está en estado terminal (reembolsado)")
)

// FieldError error de validación a nivel de campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lista de errores de campo. Se valida antes de cualquier
// escritura: si se devuelve, no hubo mutación parcial.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validación: " + strings.Join(parts, "; ")
}

// Add agrega un error de campo a la lista.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// AsValidation devuelve la lista de errores de campo si err es una ValidationErrors.
func AsValidation(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
