// Package renewal contiene la aritmética de meses calendario y las
// proyecciones puras sobre la cadena de renovaciones de un pedido.
package renewal

import (
	"time"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// AddCalendarMonths suma meses calendario a una fecha, anclando al fin de mes
// cuando el día no existe en el mes destino (31 ene + 1 mes = 28/29 feb).
// Es la aritmética de todos los ciclos de facturación: nunca un día fijo.
func AddCalendarMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// EffectiveExpiry devuelve la vigencia efectiva del pedido: la NewExpiryDate
// de la última renovación (por orden de creación) o, sin renovaciones, la
// vigencia base del pedido.
func EffectiveExpiry(o *entity.Order) time.Time {
	if len(o.Renewals) == 0 {
		return o.ExpiryDate
	}
	return o.Renewals[len(o.Renewals)-1].NewExpiryDate
}

// EffectivePaymentStatus deriva el estado de pago del pedido desde su cadena
// de renovaciones. Se recalcula en cada lectura, nunca se cachea:
//   - REFUNDED es pegajoso y absorbente.
//   - Si alguna renovación no está PAID ni REFUNDED, el efectivo es UNPAID
//     sin importar el estado base del pedido.
//   - En otro caso, el estado propio del pedido.
func EffectivePaymentStatus(o *entity.Order) string {
	if o.PaymentStatus == entity.PaymentStatusRefunded {
		return entity.PaymentStatusRefunded
	}
	for _, r := range o.Renewals {
		if r.PaymentStatus != entity.PaymentStatusPaid && r.PaymentStatus != entity.PaymentStatusRefunded {
			return entity.PaymentStatusUnpaid
		}
	}
	return o.PaymentStatus
}

// LatestByNewExpiry devuelve la renovación con la NewExpiryDate más tardía,
// o nil si el pedido no tiene renovaciones. Es el ciclo vigente para el
// prorrateo de reembolsos.
func LatestByNewExpiry(o *entity.Order) *entity.RenewalRecord {
	var latest *entity.RenewalRecord
	for i := range o.Renewals {
		r := &o.Renewals[i]
		if latest == nil || r.NewExpiryDate.After(latest.NewExpiryDate) {
			latest = r
		}
	}
	return latest
}

// InferPreviousPackage intenta recuperar el paquete previo de una renovación
// heredada que no registró previousPackageId, casando los meses de la
// renovación contra el período de garantía de los paquetes del producto.
// Es recuperación de datos best-effort, no una inversa garantizada: con cero
// o más de una coincidencia devuelve nil y el dato queda desconocido.
func InferPreviousPackage(r *entity.RenewalRecord, candidates []*entity.Package) *entity.Package {
	if r.PreviousPackageID != "" {
		for _, p := range candidates {
			if p.ID == r.PreviousPackageID {
				return p
			}
		}
		return nil
	}
	var match *entity.Package
	for _, p := range candidates {
		if p.WarrantyMonths == r.Months {
			if match != nil {
				return nil // ambiguo: no adivinar
			}
			match = p
		}
	}
	return match
}
