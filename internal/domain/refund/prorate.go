// Package refund calcula el reembolso prorrateado de un pedido cancelado a
// mitad de ciclo. El redondeo final hacia abajo al múltiplo de 1.000 COP es
// una regla de negocio deliberada y debe preservarse exacta.
package refund

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/renewal"
)

var thousand = decimal.NewFromInt(1000)

// Cycle es el ciclo de facturación vigente de un pedido: el intervalo entre
// dos vencimientos consecutivos y el precio cobrado por ese intervalo.
type Cycle struct {
	Start time.Time
	End   time.Time
	Price decimal.Decimal
}

// CurrentOrderPrice resuelve el precio vigente del pedido con la precedencia:
// precio manual por pedido (marcado y > 0) → foto del precio de venta →
// precio de lista del paquete para el nivel del cliente.
func CurrentOrderPrice(o *entity.Order, pkg *entity.Package, customer *entity.Customer) decimal.Decimal {
	if o.UseCustomPrice && o.CustomPrice.GreaterThan(decimal.Zero) {
		return o.CustomPrice
	}
	if o.SalePrice.GreaterThan(decimal.Zero) {
		return o.SalePrice
	}
	if pkg == nil {
		return decimal.Zero
	}
	tier := entity.TierRetail
	if customer != nil && customer.Tier != "" {
		tier = customer.Tier
	}
	return pkg.TierPrice(tier)
}

// ApplicableCycle determina el ciclo que contiene la fecha de corte: con
// renovaciones, el de la renovación más tardía por NewExpiryDate; sin ellas,
// el ciclo de compra inferido del período de garantía del paquete
// (inicio = vigencia - meses de garantía).
func ApplicableCycle(o *entity.Order, pkg *entity.Package, customer *entity.Customer) Cycle {
	if latest := renewal.LatestByNewExpiry(o); latest != nil {
		return Cycle{Start: latest.PreviousExpiryDate, End: latest.NewExpiryDate, Price: latest.Price}
	}
	months := 1
	if pkg != nil && pkg.WarrantyMonths > 0 {
		months = pkg.WarrantyMonths
	}
	return Cycle{
		Start: renewal.AddCalendarMonths(o.ExpiryDate, -months),
		End:   o.ExpiryDate,
		Price: CurrentOrderPrice(o, pkg, customer),
	}
}

// Amount calcula el reembolso prorrateado para una fecha de error dentro del
// ciclo. Antes del inicio: precio completo. Después del fin: cero. En medio:
// round(precio * díasRestantes / díasTotales), con días contados por techo y
// mínimo 1 día total. El resultado siempre baja al múltiplo de 1.000.
func Amount(c Cycle, errorDate time.Time) decimal.Decimal {
	if !errorDate.After(c.Start) {
		return FloorToThousand(c.Price)
	}
	if !errorDate.Before(c.End) {
		return decimal.Zero
	}
	remaining := ceilDays(c.End.Sub(errorDate))
	total := ceilDays(c.End.Sub(c.Start))
	if total < 1 {
		total = 1
	}
	raw := c.Price.
		Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)
	return FloorToThousand(raw)
}

// FloorToThousand baja el monto al múltiplo de 1.000 COP inferior.
func FloorToThousand(d decimal.Decimal) decimal.Decimal {
	return d.Div(thousand).Floor().Mul(thousand)
}

func ceilDays(d time.Duration) int {
	day := 24 * time.Hour
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}
