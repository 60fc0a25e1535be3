package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Niveles de precio por tipo de cliente.
const (
	TierRetail   = "RETAIL"
	TierReseller = "RESELLER"
)

// Package es un paquete vendible de un producto: define el período de
// garantía (en meses calendario) y el precio de lista por nivel de cliente.
// SharedPool indica que las unidades se toman del stock común del producto
// en vez de casarse con este paquete exacto.
type Package struct {
	ID             string
	ProductID      string
	Name           string
	WarrantyMonths int
	SharedPool     bool
	Prices         map[string]decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TierPrice devuelve el precio de lista para el nivel del cliente;
// cae al precio RETAIL si el nivel no tiene precio propio.
func (p *Package) TierPrice(tier string) decimal.Decimal {
	if p.Prices == nil {
		return decimal.Zero
	}
	if v, ok := p.Prices[tier]; ok && v.GreaterThan(decimal.Zero) {
		return v
	}
	return p.Prices[TierRetail]
}
