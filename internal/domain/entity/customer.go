package entity

import "time"

// Customer representa un cliente de la tienda. Tier determina el precio de
// lista aplicable cuando el pedido no trae precio propio.
type Customer struct {
	ID        string
	Name      string
	Tier      string // RETAIL | RESELLER
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
