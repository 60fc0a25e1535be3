package renewal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/renewal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddCalendarMonths(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{"mes simple", date(2025, time.January, 15), 1, date(2025, time.February, 15)},
		{"fin de mes ancla (31 ene + 1m)", date(2025, time.January, 31), 1, date(2025, time.February, 28)},
		{"año bisiesto (31 ene + 1m)", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"cruce de año", date(2025, time.November, 30), 3, date(2026, time.February, 28)},
		{"doce meses", date(2025, time.March, 10), 12, date(2026, time.March, 10)},
		{"meses negativos (inferir inicio de ciclo)", date(2025, time.March, 31), -1, date(2025, time.February, 28)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, renewal.AddCalendarMonths(tc.from, tc.months))
		})
	}
}

// Monotonía de la cadena: cada renovación arranca donde terminó la anterior y
// la vigencia efectiva del pedido es la NewExpiryDate de la última.
func TestEffectiveExpiry_CadenaMonotona(t *testing.T) {
	base := date(2025, time.January, 1)
	o := &entity.Order{ExpiryDate: base}

	exp := base
	for i := 0; i < 3; i++ {
		next := renewal.AddCalendarMonths(exp, 1)
		o.Renewals = append(o.Renewals, entity.RenewalRecord{
			Months:             1,
			PreviousExpiryDate: exp,
			NewExpiryDate:      next,
			PaymentStatus:      entity.PaymentStatusPaid,
		})
		exp = next
	}
	o.ExpiryDate = exp

	for i := 0; i+1 < len(o.Renewals); i++ {
		assert.Equal(t, o.Renewals[i].NewExpiryDate, o.Renewals[i+1].PreviousExpiryDate,
			"renovaciones consecutivas deben encadenar sin huecos")
	}
	assert.Equal(t, o.Renewals[len(o.Renewals)-1].NewExpiryDate, renewal.EffectiveExpiry(o))
}

func TestEffectiveExpiry_SinRenovaciones(t *testing.T) {
	exp := date(2025, time.May, 1)
	o := &entity.Order{ExpiryDate: exp}
	assert.Equal(t, exp, renewal.EffectiveExpiry(o))
}

func TestEffectivePaymentStatus(t *testing.T) {
	paid := entity.RenewalRecord{PaymentStatus: entity.PaymentStatusPaid}
	unpaid := entity.RenewalRecord{PaymentStatus: entity.PaymentStatusUnpaid}

	tests := []struct {
		name  string
		order *entity.Order
		want  string
	}{
		{
			name:  "REFUNDED es pegajoso aunque las renovaciones estén pagas",
			order: &entity.Order{PaymentStatus: entity.PaymentStatusRefunded, Renewals: []entity.RenewalRecord{paid}},
			want:  entity.PaymentStatusRefunded,
		},
		{
			name:  "una renovación sin pagar fuerza UNPAID sobre base PAID",
			order: &entity.Order{PaymentStatus: entity.PaymentStatusPaid, Renewals: []entity.RenewalRecord{paid, unpaid}},
			want:  entity.PaymentStatusUnpaid,
		},
		{
			name:  "todo pago devuelve el estado base",
			order: &entity.Order{PaymentStatus: entity.PaymentStatusPaid, Renewals: []entity.RenewalRecord{paid, paid}},
			want:  entity.PaymentStatusPaid,
		},
		{
			name:  "sin renovaciones manda el estado propio",
			order: &entity.Order{PaymentStatus: entity.PaymentStatusUnpaid},
			want:  entity.PaymentStatusUnpaid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, renewal.EffectivePaymentStatus(tc.order))
		})
	}
}

func TestLatestByNewExpiry(t *testing.T) {
	o := &entity.Order{Renewals: []entity.RenewalRecord{
		{ID: "r1", NewExpiryDate: date(2025, time.March, 1)},
		{ID: "r3", NewExpiryDate: date(2025, time.July, 1)},
		{ID: "r2", NewExpiryDate: date(2025, time.May, 1)},
	}}
	latest := renewal.LatestByNewExpiry(o)
	require.NotNil(t, latest)
	assert.Equal(t, "r3", latest.ID, "manda la NewExpiryDate más tardía, no el orden de creación")

	assert.Nil(t, renewal.LatestByNewExpiry(&entity.Order{}))
}

// La inferencia de paquete previo para renovaciones heredadas es best-effort:
// con coincidencia única por meses de garantía devuelve el paquete; con cero
// o varias coincidencias no adivina.
func TestInferPreviousPackage_Heuristica(t *testing.T) {
	p1 := &entity.Package{ID: "p1", WarrantyMonths: 1}
	p3 := &entity.Package{ID: "p3", WarrantyMonths: 3}
	p3b := &entity.Package{ID: "p3b", WarrantyMonths: 3}

	r := &entity.RenewalRecord{Months: 1}
	assert.Equal(t, p1, renewal.InferPreviousPackage(r, []*entity.Package{p1, p3}))

	ambiguo := &entity.RenewalRecord{Months: 3}
	assert.Nil(t, renewal.InferPreviousPackage(ambiguo, []*entity.Package{p1, p3, p3b}))

	sinMatch := &entity.RenewalRecord{Months: 6}
	assert.Nil(t, renewal.InferPreviousPackage(sinMatch, []*entity.Package{p1, p3}))

	// Con previousPackageId explícito no hay heurística.
	explicito := &entity.RenewalRecord{Months: 3, PreviousPackageID: "p3b"}
	assert.Equal(t, p3b, renewal.InferPreviousPackage(explicito, []*entity.Package{p1, p3, p3b}))
}
