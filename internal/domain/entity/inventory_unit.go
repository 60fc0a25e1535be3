package entity

import "time"

// Estados de una unidad de inventario.
const (
	UnitStatusAvailable   = "AVAILABLE"    // En bodega, lista para venderse
	UnitStatusSold        = "SOLD"         // Vinculada a pedido(s); sin cupo libre
	UnitStatusExpired     = "EXPIRED"      // Venció sin estar vendida
	UnitStatusReserved    = "RESERVED"     // Apartada manualmente por un operador
	UnitStatusNeedsUpdate = "NEEDS_UPDATE" // Credencial comprometida, pendiente de rotación
)

// Slot es un perfil asignable dentro de una unidad account-based
// (una cuenta compartida con varios puestos independientes).
type Slot struct {
	ID              string     `json:"id"`
	Label           string     `json:"label"`
	IsAssigned      bool       `json:"isAssigned"`
	AssignedOrderID string     `json:"assignedOrderId,omitempty"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	ExpiryAt        *time.Time `json:"expiryAt,omitempty"`
	NeedsUpdate     bool       `json:"needsUpdate,omitempty"`
	PreviousOrderID string     `json:"previousOrderId,omitempty"`
}

// Free indica si el perfil puede asignarse: libre y sin rotación pendiente.
func (s Slot) Free() bool {
	return !s.IsAssigned && !s.NeedsUpdate
}

// AccountColumn describe un campo de credencial de una cuenta compartida
// (usuario, contraseña, PIN...). El motor solo valida presencia de los
// obligatorios; el contenido es opaco.
type AccountColumn struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Secret   bool   `json:"secret"`
}

// InventoryUnit es una unidad vendible del inventario. Puede ser clásica
// (un solo consumidor, LinkedOrderID) o account-based (pool de perfiles).
type InventoryUnit struct {
	ID        string
	Code      string // consecutivo legible, único (INV-000123)
	ProductID string
	PackageID string // vacío cuando el producto usa pool compartido

	PurchaseDate time.Time
	ExpiryDate   time.Time
	Status       string

	IsAccountBased bool
	TotalSlots     int
	Profiles       []Slot

	AccountColumns []AccountColumn
	AccountData    map[string]string

	// Vinculación clásica (solo cuando !IsAccountBased).
	LinkedOrderID         string
	PreviousLinkedOrderID string

	PaymentStatus      string
	PoolWarrantyMonths int

	// Version es el token de concurrencia: toda escritura condicionada
	// compara contra este valor y lo incrementa.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotByID busca un perfil por su id. Devuelve nil si no existe.
func (u *InventoryUnit) SlotByID(id string) *Slot {
	for i := range u.Profiles {
		if u.Profiles[i].ID == id {
			return &u.Profiles[i]
		}
	}
	return nil
}

// SlotAssignedTo devuelve el perfil asignado al pedido, si hay alguno.
func (u *InventoryUnit) SlotAssignedTo(orderID string) *Slot {
	for i := range u.Profiles {
		if u.Profiles[i].IsAssigned && u.Profiles[i].AssignedOrderID == orderID {
			return &u.Profiles[i]
		}
	}
	return nil
}

// FreeSlots cuenta los perfiles libres y sin rotación pendiente.
func (u *InventoryUnit) FreeSlots() int {
	n := 0
	for _, p := range u.Profiles {
		if p.Free() {
			n++
		}
	}
	return n
}

// HasActiveAssignment indica si la unidad respalda algún pedido:
// vínculo clásico activo o al menos un perfil asignado.
func (u *InventoryUnit) HasActiveAssignment() bool {
	if !u.IsAccountBased {
		return u.LinkedOrderID != ""
	}
	for _, p := range u.Profiles {
		if p.IsAssigned {
			return true
		}
	}
	return false
}

// DerivedStatus calcula el estado agregado de una unidad account-based a
// partir de sus perfiles: SOLD si todos están ocupados o pendientes de
// rotación, AVAILABLE si queda al menos uno libre. Para unidades clásicas
// devuelve el estado almacenado sin cambios. Nunca se persiste por separado
// del recálculo: se invoca en cada mutación de perfiles.
func (u *InventoryUnit) DerivedStatus() string {
	if !u.IsAccountBased {
		return u.Status
	}
	if u.FreeSlots() > 0 {
		return UnitStatusAvailable
	}
	return UnitStatusSold
}

// RecomputeStatus aplica DerivedStatus sobre la unidad (account-based).
// No toca los estados temporales (EXPIRED se deriva del barrido de expiración).
func (u *InventoryUnit) RecomputeStatus() {
	if !u.IsAccountBased {
		return
	}
	if u.Status == UnitStatusExpired && !u.HasActiveAssignment() {
		return
	}
	u.Status = u.DerivedStatus()
}

// RedactedAccountData devuelve una copia de AccountData con los campos
// marcados como secretos en el esquema reemplazados por asteriscos.
// El motor no interpreta los valores; solo filtra para presentación.
func (u *InventoryUnit) RedactedAccountData() map[string]string {
	if u.AccountData == nil {
		return nil
	}
	out := make(map[string]string, len(u.AccountData))
	secret := make(map[string]bool, len(u.AccountColumns))
	for _, col := range u.AccountColumns {
		secret[col.ID] = col.Secret
	}
	for k, v := range u.AccountData {
		if secret[k] {
			out[k] = "********"
		} else {
			out[k] = v
		}
	}
	return out
}
