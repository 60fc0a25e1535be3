package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
)

// Estado agregado de una unidad account-based: AVAILABLE si y solo si queda
// al menos un perfil libre y sin rotación pendiente; SOLD si todos están
// ocupados o pendientes de rotación.
func TestDerivedStatus_AccountBased(t *testing.T) {
	libre := entity.Slot{ID: "s1"}
	ocupado := entity.Slot{ID: "s2", IsAssigned: true, AssignedOrderID: "o1"}
	pendiente := entity.Slot{ID: "s3", NeedsUpdate: true, PreviousOrderID: "o2"}

	tests := []struct {
		name  string
		slots []entity.Slot
		want  string
	}{
		{"algún perfil libre", []entity.Slot{ocupado, libre}, entity.UnitStatusAvailable},
		{"todos ocupados", []entity.Slot{ocupado, ocupado}, entity.UnitStatusSold},
		{"ocupados o pendientes de rotación", []entity.Slot{ocupado, pendiente}, entity.UnitStatusSold},
		{"solo pendientes", []entity.Slot{pendiente}, entity.UnitStatusSold},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := &entity.InventoryUnit{IsAccountBased: true, TotalSlots: len(tc.slots), Profiles: tc.slots}
			assert.Equal(t, tc.want, u.DerivedStatus())
		})
	}
}

// Un perfil no puede estar a la vez asignado y pendiente de rotación: Free
// exige ambas condiciones en falso.
func TestSlot_Free(t *testing.T) {
	assert.True(t, entity.Slot{}.Free())
	assert.False(t, entity.Slot{IsAssigned: true}.Free())
	assert.False(t, entity.Slot{NeedsUpdate: true}.Free())
}

func TestRedactedAccountData(t *testing.T) {
	u := &entity.InventoryUnit{
		IsAccountBased: true,
		AccountColumns: []entity.AccountColumn{
			{ID: "user", Label: "Usuario"},
			{ID: "pass", Label: "Contraseña", Secret: true},
		},
		AccountData: map[string]string{"user": "correo@x.com", "pass": "hunter2"},
	}
	got := u.RedactedAccountData()
	assert.Equal(t, "correo@x.com", got["user"])
	assert.Equal(t, "********", got["pass"])
}
